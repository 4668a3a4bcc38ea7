package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTotalValue", func() {
	DescribeTable("finds the receipt total",
		func(text string, expected float64) {
			v, ok := ExtractTotalValue(text)
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", expected, 0.001))
		},
		Entry("labelled total", "TOTAL: 23,45€", 23.45),
		Entry("largest of several amounts", "1,50 €\n23,45 €\n7,99€", 23.45),
		Entry("a pagar label", "Valor a pagar: 12.30", 12.30),
		Entry("bare amount", "Cafe 0,80", 0.80),
	)

	DescribeTable("finds nothing",
		func(text string) {
			_, ok := ExtractTotalValue(text)
			Expect(ok).To(BeFalse())
		},
		Entry("only a bare integer", "Mesa 7"),
		Entry("amount above the plausibility bound", "TOTAL 12000,00"),
		Entry("empty text", ""),
	)

	It("returns the maximum of all plausible amounts", func() {
		amounts := []string{"3,10", "57,25", "9,99", "120,40", "0,50"}
		v, ok := ExtractTotalValue(strings.Join(amounts, " € \n"))
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNumerically("~", 120.40, 0.001))
	})
})

var _ = Describe("ExtractTotalPdf", func() {
	var (
		text   string
		result TotalResult
	)

	JustBeforeEach(func() {
		result = ExtractTotalPdf(text, strings.Split(text, "\n"))
	})

	When("the amount is on the line after the label", func() {
		BeforeEach(func() {
			text = "TOTAL A PAGAR\n45,90€"
		})

		It("should find the value with confidence 92", func() {
			Expect(result.Value).NotTo(BeNil())
			Expect(*result.Value).To(BeNumerically("~", 45.90, 0.001))
			Expect(result.Confidence).To(Equal(92))
		})
	})

	When("the label and amount share a line", func() {
		BeforeEach(func() {
			text = "Fatura FT 2024/12\nTOTAL A PAGAR: 45,00\nDesconto\nA PAGAR 10,00"
		})

		It("should prefer the strict same-line match", func() {
			Expect(*result.Value).To(BeNumerically("~", 45.00, 0.001))
			Expect(result.Confidence).To(Equal(98))
		})
	})

	When("a line sits between the label and the amount", func() {
		BeforeEach(func() {
			text = "TOTAL A PAGAR\nResumo\n45,90 €"
		})

		It("should lower the confidence per skipped line", func() {
			Expect(*result.Value).To(BeNumerically("~", 45.90, 0.001))
			Expect(result.Confidence).To(Equal(90))
		})
	})

	When("the amount is mid-line on the next line", func() {
		BeforeEach(func() {
			text = "TOTAL A PAGAR\nEUR 45,90"
		})

		It("should use the mid-line score", func() {
			Expect(*result.Value).To(BeNumerically("~", 45.90, 0.001))
			Expect(result.Confidence).To(Equal(88))
		})
	})

	When("only a bare PAGAR is present", func() {
		BeforeEach(func() {
			text = "Valor por PAGAR 12,30"
		})

		It("should fall back with confidence 70", func() {
			Expect(*result.Value).To(BeNumerically("~", 12.30, 0.001))
			Expect(result.Confidence).To(Equal(70))
		})
	})

	When("there is no payable label", func() {
		BeforeEach(func() {
			text = "Obrigado pela visita"
		})

		It("should return no value", func() {
			Expect(result.Value).To(BeNil())
			Expect(result.Confidence).To(Equal(0))
		})
	})
})

var _ = Describe("StrategyFor", func() {
	It("uses the invoice strategy for invoices", func() {
		r := StrategyFor(KindInvoice)("TOTAL A PAGAR\n45,90€")
		Expect(r.Confidence).To(Equal(92))
	})

	It("uses the simple strategy for receipts", func() {
		r := StrategyFor(KindReceipt)("TOTAL: 23,45€")
		Expect(*r.Value).To(BeNumerically("~", 23.45, 0.001))
		Expect(r.Confidence).To(Equal(100))
	})
})
