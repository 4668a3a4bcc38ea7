package llm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/recibos/internal/extraction"
)

var _ = Describe("ParseFields", func() {
	var (
		reply  string
		fields *extraction.Fields
		err    error
	)

	JustBeforeEach(func() {
		fields, err = ParseFields(reply)
	})

	When("parsing a complete reply", func() {
		BeforeEach(func() {
			reply = `{"merchantName": "Pingo Doce", "totalValue": 23.45, "dateDetected": "2024-03-12",
				"categoria": "Supermercado", "ivaDedutivel": false, "valorTotalIVA": 6}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse every field", func() {
			Expect(*fields.MerchantName).To(Equal("Pingo Doce"))
			Expect(*fields.TotalValue).To(Equal(23.45))
			Expect(*fields.DateDetected).To(Equal("2024-03-12"))
			Expect(*fields.Categoria).To(Equal(extraction.CategorySupermercado))
			Expect(*fields.IVADedutivel).To(BeFalse())
			Expect(*fields.ValorTotalIVA).To(Equal(6.0))
		})
	})

	When("the reply is wrapped in prose and code fences", func() {
		BeforeEach(func() {
			reply = "Aqui está:\n```json\n{\"merchantName\": \"Tasca\", \"totalValue\": null}\n```"
		})

		It("should parse the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(*fields.MerchantName).To(Equal("Tasca"))
			Expect(fields.TotalValue).To(BeNil())
		})
	})

	When("numbers and booleans come as strings", func() {
		BeforeEach(func() {
			reply = `{"totalValue": "23,45 €", "ivaDedutivel": "sim", "valorTotalIVA": "23"}`
		})

		It("should coerce them", func() {
			Expect(*fields.TotalValue).To(BeNumerically("~", 23.45, 0.001))
			Expect(*fields.IVADedutivel).To(BeTrue())
			Expect(*fields.ValorTotalIVA).To(Equal(23.0))
		})
	})

	When("one field has the wrong type", func() {
		BeforeEach(func() {
			reply = `{"merchantName": ["a", "b"], "totalValue": 9.99}`
		})

		It("should drop only that field", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.MerchantName).To(BeNil())
			Expect(*fields.TotalValue).To(Equal(9.99))
		})
	})

	When("the date is not ISO formatted", func() {
		BeforeEach(func() {
			reply = `{"dateDetected": "12/03/2024"}`
		})

		It("should convert it with the date rules", func() {
			Expect(*fields.DateDetected).To(Equal("2024-03-12"))
		})
	})

	When("the date cannot be understood", func() {
		BeforeEach(func() {
			reply = `{"dateDetected": "ontem"}`
		})

		It("should drop it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.DateDetected).To(BeNil())
		})
	})

	When("there is no JSON object", func() {
		BeforeEach(func() {
			reply = "Não consegui ler o recibo."
		})

		It("should return ErrNoJSON", func() {
			Expect(err).To(MatchError(ErrNoJSON))
		})
	})

	When("the JSON is malformed", func() {
		BeforeEach(func() {
			reply = `{"merchantName": "x",}`
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
