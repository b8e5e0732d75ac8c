package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/fleet-backoffice/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("leaves sentinels untouched when details are attached", func() {
		decorated := internal.ErrRoleNotFound.WithDetails(map[string]int64{"role_id": 9})

		Expect(internal.ErrRoleNotFound.Details).To(BeNil())
		Expect(errors.Is(decorated, internal.ErrRoleNotFound)).To(BeTrue())
		Expect(errors.Is(decorated, internal.ErrMenuNotFound)).To(BeFalse())
	})

	It("is found through wrapping", func() {
		err := fmt.Errorf("loading role: %w", internal.ErrRoleNotFound)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("keeps the cause off the wire", func() {
		appErr := internal.NewInternalError("internal server error", errors.New("pq: connection refused"))
		raw, err := json.Marshal(internal.Response{Error: appErr})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).NotTo(ContainSubstring("connection refused"))
		Expect(appErr.DetailedMessage()).To(ContainSubstring("connection refused"))
	})

	It("reports missing permissions with mode and keys", func() {
		appErr := internal.NewPermissionDeniedError("all", []string{"checklists.manage"}, []string{"checklists.manage"})
		Expect(appErr.StatusCode).To(Equal(http.StatusForbidden))
		Expect(appErr.Code).To(Equal(internal.ErrCodePermissionDenied))
		Expect(appErr.Details).To(Equal(internal.PermissionDetails{
			Mode: "all", Required: []string{"checklists.manage"}, Missing: []string{"checklists.manage"},
		}))
	})

	It("joins field messages of a validation failure", func() {
		appErr := internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{
				{Field: "title", Message: "title is required"},
				{Field: "status", Message: "status must be one of pending, in_progress, completed"},
			}})
		Expect(appErr.Error()).To(Equal("title is required"))
		Expect(appErr.DetailedMessage()).To(Equal("title is required; status must be one of pending, in_progress, completed"))
	})
})
