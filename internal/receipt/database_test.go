package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/recibos/internal/extraction"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newReceipt := func(id string, created time.Time) *Receipt {
		merchant := "Pingo Doce"
		total := 17.89
		category := extraction.CategorySupermercado
		return &Receipt{
			ID: id,
			ParsedReceiptData: extraction.ParsedReceiptData{
				MerchantName:  &merchant,
				TotalValue:    &total,
				Categoria:     &category,
				ExtractedText: "PINGO DOCE\nTOTAL 17,89",
				Source:        extraction.SourceRules,
			},
			Kind:        extraction.KindReceipt,
			Filename:    id + "_recibo.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}

	Describe("SaveReceipt and GetReceipt", func() {
		It("should round-trip the parsed fields", func() {
			Expect(db.SaveReceipt(newReceipt("r1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))).To(Succeed())

			saved, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(*saved.MerchantName).To(Equal("Pingo Doce"))
			Expect(*saved.TotalValue).To(Equal(17.89))
			Expect(*saved.Categoria).To(Equal(extraction.CategorySupermercado))
			Expect(saved.Kind).To(Equal(extraction.KindReceipt))
			Expect(saved.DateDetected).To(BeNil())
		})

		It("should replace an existing receipt", func() {
			r := newReceipt("r1", time.Now())
			Expect(db.SaveReceipt(r)).To(Succeed())
			r.Edited = true
			Expect(db.SaveReceipt(r)).To(Succeed())

			saved, err := db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Edited).To(BeTrue())
		})

		It("should return ErrNotFound for unknown IDs", func() {
			_, err := db.GetReceipt("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListReceipts", func() {
		When("the database is empty", func() {
			It("should return an empty, non-nil slice", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).NotTo(BeNil())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(newReceipt("old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveReceipt(newReceipt("new", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveReceipt(newReceipt("mid", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			})

			It("should return them newest first", func() {
				receipts, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, 0, len(receipts))
				for _, r := range receipts {
					ids = append(ids, r.ID)
				}
				Expect(ids).To(Equal([]string{"new", "mid", "old"}))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		It("should remove the receipt", func() {
			Expect(db.SaveReceipt(newReceipt("r1", time.Now()))).To(Succeed())
			Expect(db.DeleteReceipt("r1")).To(Succeed())
			_, err := db.GetReceipt("r1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should return ErrNotFound for unknown IDs", func() {
			Expect(db.DeleteReceipt("missing")).To(MatchError(ErrNotFound))
		})
	})

	Describe("reopening", func() {
		It("should keep saved receipts", func() {
			Expect(db.SaveReceipt(newReceipt("r1", time.Now()))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.GetReceipt("r1")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
