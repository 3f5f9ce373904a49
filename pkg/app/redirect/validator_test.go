package redirect

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validator", func() {
	var validator Validator

	BeforeEach(func() {
		validator = NewValidator([]string{"example.com", ".trusted.org"})
	})

	DescribeTable("IsValidRedirect",
		func(redirect string, expected bool) {
			Expect(validator.IsValidRedirect(redirect)).To(Equal(expected))
		},
		Entry("empty string", "", false),
		Entry("relative path", "/dashboard", true),
		Entry("relative path with query", "/dashboard?tab=1", true),
		Entry("protocol relative", "//evil.com/path", false),
		Entry("protocol relative with backslash", "/\\evil.com", false),
		Entry("whitespace smuggled double slash", "/ /evil.com", false),
		Entry("dot segment smuggling", "/./\\evil.com", false),
		Entry("trusted domain", "https://example.com/path", true),
		Entry("trusted domain over http", "http://example.com/path", true),
		Entry("subdomain of trusted domain", "https://app.example.com/path", true),
		Entry("uppercase trusted domain", "https://APP.EXAMPLE.COM/", true),
		Entry("untrusted domain", "https://evil.com/", false),
		Entry("suffix lookalike domain", "https://notexample.com/", false),
		Entry("leading dot entry matches subdomains", "https://a.trusted.org/", true),
		Entry("unsupported scheme", "ftp://example.com/", false),
		Entry("bare word", "dashboard", false),
	)

	Context("with no trusted domains", func() {
		BeforeEach(func() {
			validator = NewValidator(nil)
		})

		It("still allows relative paths", func() {
			Expect(validator.IsValidRedirect("/dashboard")).To(BeTrue())
		})

		It("rejects every absolute URL", func() {
			Expect(validator.IsValidRedirect("https://example.com/")).To(BeFalse())
		})
	})
})
