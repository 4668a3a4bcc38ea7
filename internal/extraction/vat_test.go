package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractVATRate", func() {
	DescribeTable("finds Portuguese VAT rates",
		func(text string, expected float64) {
			rate, ok := ExtractVATRate(text)
			Expect(ok).To(BeTrue())
			Expect(rate).To(Equal(expected))
		},
		Entry("label before rate", "IVA 23%", 23.0),
		Entry("decimal rate", "Taxa IVA: 13,00 %", 13.0),
		Entry("rate before label", "6% IVA incluído", 6.0),
	)

	It("ignores percentages that are not VAT rates", func() {
		_, ok := ExtractVATRate("Desconto 50%")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("VATIncluded", func() {
	It("extracts the VAT part of a gross total", func() {
		Expect(VATIncluded(123, 23)).To(BeNumerically("~", 23.0, 0.001))
		Expect(VATIncluded(10, 23)).To(BeNumerically("~", 1.87, 0.001))
	})

	It("is zero without a rate", func() {
		Expect(VATIncluded(10, 0)).To(BeZero())
	})
})
