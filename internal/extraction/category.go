package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is a fixed spending category label.
type Category string

const (
	CategoryPadaria       Category = "Padaria"
	CategoryChurrasqueira Category = "Churrasqueira"
	CategorySupermercado  Category = "Supermercado"
	CategoryFarmacia      Category = "Farmácia"
	CategoryCafeBar       Category = "Café/Bar"
	CategoryRestaurante   Category = "Restaurante"
	CategoryCombustivel   Category = "Combustível"
	CategoryTalho         Category = "Talho"
	CategoryMercearia     Category = "Mercearia"
	CategoryPapelaria     Category = "Papelaria/Livraria"
	CategoryTelecom       Category = "Telecomunicações"
	CategoryBancarios     Category = "Serviços Bancários"
	CategoryCalcado       Category = "Calçado"
	CategoryVestuario     Category = "Vestuário"
	CategorySaude         Category = "Saúde"
	CategoryAlojamento    Category = "Alojamento"
	CategoryTransporte    Category = "Transporte"
	CategoryBeleza        Category = "Beleza/Estética"
	CategoryVeterinario   Category = "Veterinário/Animais"
	CategoryCorreios      Category = "Correios/Envios"
	CategoryEmpresa       Category = "Empresa"
)

type categoryRule struct {
	category Category
	re       *regexp.Regexp
}

// Declaration order is the tie-break: the first matching rule wins.
var categoryRules = []categoryRule{
	{CategoryPadaria, regexp.MustCompile(`padaria|pao|pastelaria|confeitaria|doces|bolos|croissant|pães|massa folhada`)},
	{CategoryChurrasqueira, regexp.MustCompile(`churrasque|grelhados|frango|grill|churrasco|assados|franguinho|chicken`)},
	{CategorySupermercado, regexp.MustCompile(`supermercado|pingo doce|continente|intermarche|lidl|auchan|el corte|minipreco|froiz|jumbo|modelo|recheio`)},
	{CategoryFarmacia, regexp.MustCompile(`farmacia|farmácia|saude|medicamento|parafarmacia|wells|holon`)},
	{CategoryCafeBar, regexp.MustCompile(`cafe|cafetaria|bar|taberna|pub|snack|pastelaria|cafe central|delta|bica|galao`)},
	{CategoryRestaurante, regexp.MustCompile(`restaurante|tasca|bistro|marisqueira|pizzaria|hamburguer|comida|refeicao|fast food|mcdonalds|burger|kfc|pizza hut`)},
	{CategoryCombustivel, regexp.MustCompile(`gasolineira|combustivel|galp|bp|repsol|cepsa|shell|petrogal|posto|gas|gasolina|diesel`)},
	{CategoryTalho, regexp.MustCompile(`talho|acougue|carnes|charcutaria|carniceria`)},
	{CategoryMercearia, regexp.MustCompile(`mercearia|mini mercado|minimercado|loja|conveniencia|24h|vinte quatro`)},
	{CategoryPapelaria, regexp.MustCompile(`papelaria|livraria|material|escritorio|escolar|fnac|bertrand`)},
	{CategoryTelecom, regexp.MustCompile(`telecomunicacoes|vodafone|meo|nos|optimus|tmn|telefone|internet|worten|radio popular`)},
	{CategoryBancarios, regexp.MustCompile(`banco|atm|multibanco|caixa|credito|debito|transferencia|cgd|millennium|santander|bpi`)},
	{CategoryCalcado, regexp.MustCompile(`sapataria|calcado|sapatos|tenis|botas|sport zone|decathlon`)},
	{CategoryVestuario, regexp.MustCompile(`roupa|vestuario|moda|textil|zara|h&m|pull|massimo|primark|inditex`)},
	{CategorySaude, regexp.MustCompile(`clinica|medico|dentista|otica|oculista|saude|hospital|centro de saude`)},
	{CategoryAlojamento, regexp.MustCompile(`hotel|pousada|alojamento|turismo|viagem|booking|airbnb`)},
	{CategoryTransporte, regexp.MustCompile(`taxi|uber|bolt|transporte|viagem|autocarro|comboio|cp|carris|metro`)},
	{CategoryBeleza, regexp.MustCompile(`cabeleireiro|barbeiro|estetica|beleza|manicure|spa|salao`)},
	{CategoryVeterinario, regexp.MustCompile(`veterinario|animais|pet shop|racao|veterinaria`)},
	{CategoryCorreios, regexp.MustCompile(`correios|ctt|dhl|ups|fedex|envio|encomenda`)},
}

// structuralRules look at the shape of the name once no keyword matched.
// A nil category marks names that are known not to be classifiable.
var structuralRules = []struct {
	category *Category
	re       *regexp.Regexp
}{
	{ptr(CategoryEmpresa), regexp.MustCompile(`lda|limitada|sa|sociedade`)},
	{ptr(CategoryEmpresa), regexp.MustCompile(`unipessoal`)},
	{nil, regexp.MustCompile(`\d{4,}`)},
	{nil, regexp.MustCompile(`^.{1,3}$`)},
}

// foldName lowercases s and strips combining marks after NFD decomposition.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// ExtractCategory classifies a merchant. The name is matched against the
// keyword rules first, then the full receipt text, then structural hints
// such as "Lda". An empty name is first recovered from fullText.
func ExtractCategory(merchantName, fullText string) (Category, bool) {
	name := strings.TrimSpace(merchantName)
	if name == "" && fullText != "" {
		name = MerchantFromFullText(fullText)
	}
	if name == "" {
		return "", false
	}

	folded := foldName(name)
	if c, ok := matchKeywords(folded); ok {
		return c, true
	}
	if fullText != "" {
		if c, ok := matchKeywords(foldName(NormalizeText(fullText))); ok {
			return c, true
		}
	}
	for _, r := range structuralRules {
		if r.re.MatchString(folded) {
			if r.category == nil {
				return "", false
			}
			return *r.category, true
		}
	}
	return "", false
}

func matchKeywords(folded string) (Category, bool) {
	for _, r := range categoryRules {
		if r.re.MatchString(folded) {
			return r.category, true
		}
	}
	return "", false
}

// AvailableCategories lists every label in declaration order.
func AvailableCategories() []Category {
	out := make([]Category, 0, len(categoryRules)+1)
	for _, r := range categoryRules {
		out = append(out, r.category)
	}
	return append(out, CategoryEmpresa)
}

// CanonicalCategory maps free text such as "restaurante", "cafe" or
// "Livraria" onto a known label.
func CanonicalCategory(s string) (Category, bool) {
	folded := foldName(strings.TrimSpace(s))
	if folded == "" {
		return "", false
	}
	for _, c := range AvailableCategories() {
		label := foldName(string(c))
		if folded == label {
			return c, true
		}
		for _, part := range strings.Split(label, "/") {
			if folded == part {
				return c, true
			}
		}
	}
	return matchKeywords(folded)
}

// DeductibleByDefault is the VAT deductibility used when no extractor
// decided: invoices are presumed deductible, receipts are not.
func DeductibleByDefault(kind DocumentKind) bool {
	return kind == KindInvoice
}
