package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractDate", func() {
	DescribeTable("accepts valid dates",
		func(text, expected string) {
			d, ok := ExtractDate(text)
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(expected))
		},
		Entry("day/month/year", "Data: 12/03/2024", "2024-03-12"),
		Entry("leap day", "29/02/2024", "2024-02-29"),
		Entry("two digit year before the pivot", "05-06-23", "2023-06-05"),
		Entry("two digit year after the pivot", "01.01.75", "1975-01-01"),
		Entry("verbose portuguese", "Lisboa, 12 de março de 2024", "2024-03-12"),
		Entry("abbreviated month", "3 Jan 2025", "2025-01-03"),
		Entry("iso date", "Emitida 2024-03-12 10:00", "2024-03-12"),
		Entry("numeric date before a later iso date", "Data: 12/03/2024\nValido ate 2024-04-30", "2024-03-12"),
		Entry("skips an invalid candidate", "31/02/2024 ou 01/03/2024", "2024-03-01"),
	)

	DescribeTable("rejects invalid dates",
		func(text string) {
			_, ok := ExtractDate(text)
			Expect(ok).To(BeFalse())
		},
		Entry("february 31st", "31/02/2024"),
		Entry("february 29th outside a leap year", "29/02/2023"),
		Entry("month 13", "10/13/2024"),
		Entry("unknown month name", "12 de brumario de 2024"),
		Entry("no date at all", "TOTAL 12,00"),
	)
})

var _ = Describe("ValidDate", func() {
	It("accepts in-range ISO dates", func() {
		Expect(ValidDate("2024-03-12")).To(BeTrue())
	})

	It("rejects malformed or out of range dates", func() {
		Expect(ValidDate("2024-13-01")).To(BeFalse())
		Expect(ValidDate("1850-01-01")).To(BeFalse())
		Expect(ValidDate("12/03/2024")).To(BeFalse())
	})
})
