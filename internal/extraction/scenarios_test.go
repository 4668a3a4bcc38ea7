package extraction

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

type scenario struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Text   string `yaml:"text"`
	Expect struct {
		MerchantName *string  `yaml:"merchantName"`
		TotalValue   *float64 `yaml:"totalValue"`
		DateDetected *string  `yaml:"dateDetected"`
		Categoria    *string  `yaml:"categoria"`
	} `yaml:"expect"`
}

func loadScenarios() []scenario {
	data, err := os.ReadFile("testdata/scenarios.yaml")
	if err != nil {
		panic(err)
	}
	var out []scenario
	if err := yaml.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

var _ = Describe("Rules extraction scenarios", func() {
	for _, sc := range loadScenarios() {
		It(sc.Name, func() {
			got := Extract(sc.Text, ParseDocumentKind(sc.Kind))
			Expect(got.Source).To(Equal(SourceRules))

			if sc.Expect.MerchantName != nil {
				Expect(got.MerchantName).NotTo(BeNil())
				Expect(*got.MerchantName).To(Equal(*sc.Expect.MerchantName))
			}
			if sc.Expect.TotalValue != nil {
				Expect(got.TotalValue).NotTo(BeNil())
				Expect(*got.TotalValue).To(BeNumerically("~", *sc.Expect.TotalValue, 0.001))
			} else {
				Expect(got.TotalValue).To(BeNil())
			}
			if sc.Expect.DateDetected != nil {
				Expect(got.DateDetected).NotTo(BeNil())
				Expect(*got.DateDetected).To(Equal(*sc.Expect.DateDetected))
			}
			if sc.Expect.Categoria != nil {
				Expect(got.Categoria).NotTo(BeNil())
				Expect(string(*got.Categoria)).To(Equal(*sc.Expect.Categoria))
			}
		})
	}
})
