package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeText", func() {
	DescribeTable("repairs OCR text",
		func(input, expected string) {
			Expect(NormalizeText(input)).To(Equal(expected))
		},
		Entry("empty input", "", ""),
		Entry("folds accents of either case", "Café ÇÃO Pão", "Cafe caO Pao"),
		Entry("fixes total typos", "TOTAI: 12,50", "total: 12,50"),
		Entry("fixes total with a digit one", "tota1 9,99", "total 9,99"),
		Entry("turns a zero before a digit into O", "2024", "2O24"),
		Entry("turns 1 before a letter into l", "1itro", "litro"),
		Entry("turns 5 before a letter into S", "5alada", "Salada"),
		Entry("settles digit chains in one pass", "15kg", "lSkg"),
		Entry("collapses whitespace and trims", "  a \n\t b  ", "a b"),
		Entry("repairs a mis-encoded euro sign", "â‚¬ 5", "€ 5"),
	)

	It("is idempotent", func() {
		inputs := []string{
			"SUPERMERCADO ABC\nNIF: 123456789\nTOTAL: 23,45€\n12/03/2024",
			"015a 0015kg tota1 TOTAI 100",
			"Ração pães  çç ÁÉÍÓÚ 10 1 5 51x",
			"â‚¬ 1.234,56 EUR",
			"",
		}
		for _, in := range inputs {
			once := NormalizeText(in)
			Expect(NormalizeText(once)).To(Equal(once), "input %q", in)
		}
	})
})
