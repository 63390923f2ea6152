package handlers

import (
	"errors"
	"net/http"

	"aceofspace-go/middleware"
	"aceofspace-go/models"
	"aceofspace-go/services"

	"go.uber.org/zap"
)

const multipartMemory = 1 << 20

// UploadKYC accepts multipart/form-data with documentType, documentNumber
// and one or more documentFile parts.
func (h *Handlers) UploadKYC(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r)

	// Room for two maximum-size files plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.config.KYC.MaxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeResult(w, models.Fail(string(services.KindValidation), services.ErrFileTooLarge.Error(), err))
			return
		}
		h.writeResult(w, models.Fail(string(services.KindValidation), "Invalid multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["documentFile"]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("open multipart file", zap.String("file", fh.Filename), zap.Error(err))
			h.writeResult(w, models.Fail(string(services.KindStorage), "Could not read uploaded file", err))
			return
		}
		defer f.Close()
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Size: fh.Size, Content: f})
	}

	res := h.kyc.Submit(r.Context(), identity.ID, r.FormValue("documentType"), r.FormValue("documentNumber"), uploads)
	if res.OK() {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	h.writeResult(w, res)
}

func (h *Handlers) GetKYCStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r)
	h.writeResult(w, h.kyc.Status(r.Context(), identity.ID))
}
