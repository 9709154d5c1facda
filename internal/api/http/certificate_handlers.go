package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-academy/internal/certificate"
)

type certificateStatus struct {
	certificate.Eligibility
	Issued      bool                     `json:"issued"`
	Certificate *certificate.Certificate `json:"certificate,omitempty"`
	PDFURL      string                   `json:"pdfUrl,omitempty"`
	ViewURL     string                   `json:"viewUrl,omitempty"`
}

func (d Deps) certificateLinks(id string) (pdf, view string) {
	base := d.PublicURL + "/certificates/" + id
	return base + ".pdf", base
}

// GET /certificates/status/{courseId}
func CertificateStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		courseID := chi.URLParam(r, "courseId")
		el, err := d.Certs.Eligibility(r.Context(), sub, courseID)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		out := certificateStatus{Eligibility: el}
		c, issued, err := d.Certs.Get(r.Context(), sub, courseID)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if issued {
			out.Issued = true
			out.Certificate = &c
			out.PDFURL, out.ViewURL = d.certificateLinks(c.ID)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type claimRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

// POST /certificates/claim
func ClaimCertificateHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		var req claimRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if !d.courseGate(w, r, req.CourseID) {
			return
		}
		c, err := d.Certs.Ensure(r.Context(), sub, req.CourseID)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		pdf, view := d.certificateLinks(c.ID)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok": true,
			"certificate": map[string]any{
				"id":       c.ID,
				"issuedAt": c.IssuedAt.Format(time.RFC3339Nano),
			},
			"pdfUrl":  pdf,
			"viewUrl": view,
		})
	}
}
