package rest_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/frahmantamala/fleet-backoffice/internal/transport/rest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadOpenAPI", func() {
	It("accepts the published document and lists the gated routes", func() {
		doc, err := rest.LoadOpenAPI(context.Background(), filepath.Join("..", "..", "..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())

		Expect(doc.Paths.Find("/checklists")).NotTo(BeNil())
		Expect(doc.Paths.Find("/menus/{id}")).NotTo(BeNil())
		Expect(doc.Paths.Find("/audit-logs/export")).NotTo(BeNil())
	})

	It("rejects a document that does not validate", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.yml")
		Expect(os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: broken\npaths: {}\n"), 0o600)).To(Succeed())

		_, err := rest.LoadOpenAPI(context.Background(), path)
		Expect(err).To(HaveOccurred())
	})
})
