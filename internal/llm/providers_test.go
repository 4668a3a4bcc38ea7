package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/recibos/internal/extraction"
)

var _ = Describe("Groq", func() {
	var (
		server *ghttp.Server
		groq   *Groq
		fields *extraction.Fields
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		groq, err = NewGroq("gsk-test", server.URL()+"/openai/v1", "")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		fields, err = groq.ExtractFields(context.Background(), "PINGO DOCE\nTOTAL 12,30")
	})

	When("the API answers with JSON content", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/openai/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer gsk-test"),
				func(w http.ResponseWriter, r *http.Request) {
					var body map[string]any
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					Expect(body["model"]).To(Equal("llama3-8b-8192"))
					Expect(body["response_format"]).To(HaveKeyWithValue("type", "json_object"))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"id":     "chatcmpl-1",
					"object": "chat.completion",
					"model":  "llama3-8b-8192",
					"choices": []map[string]any{{
						"index":         0,
						"finish_reason": "stop",
						"message": map[string]any{
							"role":    "assistant",
							"content": `{"merchantName":"Pingo Doce","totalValue":12.3,"dateDetected":null}`,
						},
					}},
				}),
			))
		})

		It("should return the parsed fields", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(*fields.MerchantName).To(Equal("Pingo Doce"))
			Expect(*fields.TotalValue).To(Equal(12.3))
			Expect(fields.DateDetected).To(BeNil())
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
			}))
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("NewGroq", func() {
	It("requires an API key", func() {
		_, err := NewGroq("", "", "")
		Expect(err).To(MatchError(ErrMissingAPIKey))
	})
})

var _ = Describe("Ollama", func() {
	var server *ghttp.Server

	BeforeEach(func() {
		server = ghttp.NewServer()
	})

	AfterEach(func() {
		server.Close()
	})

	It("should ask for JSON output and parse the reply", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
			func(w http.ResponseWriter, r *http.Request) {
				var body ollamaChatRequest
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body.Format).To(Equal("json"))
				Expect(body.Stream).To(BeFalse())
				Expect(body.Messages).To(HaveLen(2))
				Expect(body.Messages[1].Content).To(ContainSubstring("Talho Central"))
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Done:    true,
				Message: ollamaMessage{Role: "assistant", Content: `{"merchantName":"Talho Central","categoria":"Talho"}`},
			}),
		))

		o, err := NewOllama(server.URL(), "")
		Expect(err).NotTo(HaveOccurred())

		fields, err := o.ExtractFields(context.Background(), "Talho Central\nTOTAL 8,00")
		Expect(err).NotTo(HaveOccurred())
		Expect(*fields.MerchantName).To(Equal("Talho Central"))
		Expect(*fields.Categoria).To(Equal(extraction.CategoryTalho))
	})

	It("should report HTTP errors", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "model not found"))

		o, err := NewOllama(server.URL(), "missing")
		Expect(err).NotTo(HaveOccurred())

		_, err = o.ExtractFields(context.Background(), "x")
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})
})

var _ = Describe("New", func() {
	It("returns no provider when disabled", func() {
		p, err := New(Config{Provider: "none"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNil())
	})

	It("rejects unknown providers", func() {
		_, err := New(Config{Provider: "magic"})
		Expect(err).To(HaveOccurred())
	})

	It("requires an API key for hosted providers", func() {
		for _, name := range []string{"groq", "openai", "gemini"} {
			_, err := New(Config{Provider: name})
			Expect(err).To(MatchError(ErrMissingAPIKey), name)
		}
	})

	It("builds an ollama provider", func() {
		p, err := New(Config{Provider: "ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&Ollama{}))
	})
})

// flakyProvider fails until told otherwise
type flakyProvider struct {
	err   error
	calls int
}

func (f *flakyProvider) ExtractFields(ctx context.Context, text string) (*extraction.Fields, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &extraction.Fields{}, nil
}

func (f *flakyProvider) Close() error { return nil }

var _ = Describe("Breaker", func() {
	It("opens after consecutive failures and stops calling the provider", func() {
		p := &flakyProvider{err: errors.New("down")}
		b := NewBreaker(p, 2, time.Minute)

		for i := 0; i < 2; i++ {
			_, err := b.ExtractFields(context.Background(), "x")
			Expect(err).To(MatchError("down"))
		}
		Expect(b.State()).To(Equal("open"))

		_, err := b.ExtractFields(context.Background(), "x")
		Expect(err).To(HaveOccurred())
		Expect(p.calls).To(Equal(2))
	})

	It("passes results through while closed", func() {
		p := &flakyProvider{}
		b := NewBreaker(p, 2, time.Minute)

		fields, err := b.ExtractFields(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(fields).NotTo(BeNil())
		Expect(b.State()).To(Equal("closed"))
	})
})
