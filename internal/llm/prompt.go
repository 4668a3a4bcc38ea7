package llm

import (
	"fmt"
	"strings"

	"github.com/zombor/recibos/internal/extraction"
)

// systemPrompt is sent as the system message by every provider
const systemPrompt = "És um assistente especialista em extração de dados de recibos. A tua resposta deve ser apenas um objeto JSON válido."

// receiptPrompt is the shared instruction used by all providers
const receiptPrompt = `Analisa o seguinte texto de um recibo e extrai as informações especificadas.
Devolve os dados como um objeto JSON válido. Se um valor não for encontrado, devolve null para esse campo.

- merchantName: O nome da loja ou comerciante.
- totalValue: O valor total da compra (como um número).
- dateDetected: A data da transação no formato AAAA-MM-DD.
- categoria: A categoria da despesa, uma de: %s.
- ivaDedutivel: Um booleano que indica se o IVA é dedutível (true/false).
- valorTotalIVA: A taxa de IVA aplicada em percentagem (como um número, ex: 23).

Texto do Recibo:
"""
%s
"""

Saída JSON:`

// buildPrompt renders the user message for a receipt text
func buildPrompt(text string) string {
	cats := extraction.AvailableCategories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = fmt.Sprintf("%q", string(c))
	}
	return fmt.Sprintf(receiptPrompt, strings.Join(names, ", "), text)
}
