package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AnalyzeQuality", func() {
	It("rates a structured receipt as high", func() {
		text := "SUPERMERCADO ABC LDA\nRua das Flores 12\nNIF: 123456789\nLeite meio gordo 0,89\nPao de forma 1,49\nTOTAL: 2,38 EUR"
		r := AnalyzeQuality(text)
		Expect(r.LineCount).To(Equal(6))
		Expect(r.HasStructuredData).To(BeTrue())
		Expect(r.Confidence).To(Equal(QualityHigh))
	})

	It("rates short unstructured text as medium", func() {
		r := AnalyzeQuality("linha um\nlinha dois\nlinha tres\nlinha quatro")
		Expect(r.Confidence).To(Equal(QualityMedium))
	})

	It("rates fragments as low", func() {
		r := AnalyzeQuality("a\n\nb")
		Expect(r.LineCount).To(Equal(2))
		Expect(r.Confidence).To(Equal(QualityLow))
	})

	It("handles empty text", func() {
		r := AnalyzeQuality("")
		Expect(r.LineCount).To(BeZero())
		Expect(r.AvgLineLength).To(BeZero())
		Expect(r.Confidence).To(Equal(QualityLow))
	})
})
