package extraction

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCurrency", func() {
	DescribeTable("parses amounts",
		func(raw string, expected float64) {
			v, ok := ParseCurrency(raw)
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", expected, 0.001))
		},
		Entry("comma decimal", "23,45", 23.45),
		Entry("portuguese thousands", "1.234,56 €", 1234.56),
		Entry("generic thousands", "1,234.56", 1234.56),
		Entry("dot thousands only", "1.234", 1234.0),
		Entry("dot not followed by two digits", "12.5", 125.0),
		Entry("leading euro sign", "€ 7,99", 7.99),
		Entry("EUR marker and letter O", "EUR 12,OO", 12.0),
		Entry("OCR letters for digits", "4S,9O", 45.90),
		Entry("parentheses", "(12,00)", 12.0),
		Entry("no separator", "150", 150.0),
	)

	DescribeTable("rejects non amounts",
		func(raw string) {
			_, ok := ParseCurrency(raw)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("only whitespace", "   "),
		Entry("only currency", "€"),
		Entry("letters", "abc"),
	)

	It("recovers formatted amounts in both conventions", func() {
		for cents := 1; cents <= 999999; cents += 7919 {
			v := float64(cents) / 100
			whole := cents / 100
			frac := cents % 100

			pt := fmt.Sprintf("%s,%02d", groupThousands(whole, "."), frac)
			generic := fmt.Sprintf("%s.%02d", groupThousands(whole, ","), frac)

			got, ok := ParseCurrency(pt)
			Expect(ok).To(BeTrue(), pt)
			Expect(got).To(BeNumerically("~", v, 0.001), pt)

			got, ok = ParseCurrency(generic)
			Expect(ok).To(BeTrue(), generic)
			Expect(got).To(BeNumerically("~", v, 0.001), generic)
		}
	})
})

func groupThousands(n int, sep string) string {
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, sep)
}
