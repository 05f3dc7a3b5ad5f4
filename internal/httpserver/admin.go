package httpserver

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	"github.com/zeewalex59-ux/shopelitesource/internal/service/admin"
	"github.com/zeewalex59-ux/shopelitesource/internal/storage"
)

// Multipart admin requests carry the JSON body in this form field and the
// optional image file in imageField.
const (
	productField = "product"
	imageField   = "image"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// decodeAdminBody reads the JSON payload into dst from either a plain JSON
// body or the product field of a multipart form, returning the attached
// image when present. The caller closes the returned file.
func decodeAdminBody(c *gin.Context, dst any) (*admin.Upload, multipart.File, error) {
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(dst); err != nil {
			return nil, nil, errors.Wrap(err, "invalid json body")
		}
		return nil, nil, nil
	}
	if err := c.Request.ParseMultipartForm(storage.MaxUploadBytes); err != nil {
		return nil, nil, errors.Wrap(err, "invalid multipart form")
	}
	if raw := c.Request.FormValue(productField); raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return nil, nil, errors.Wrap(err, "invalid product field")
		}
	}
	file, header, err := c.Request.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid image")
	}
	return &admin.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, file, nil
}

type adminProductResponse struct {
	Success bool             `json:"success"`
	Product *productResponse `json:"product,omitempty"`
}

func (h *handlers) writeResult(c *gin.Context, res admin.Result, okStatus int) {
	if res.Success {
		out := adminProductResponse{Success: true}
		if res.Product != nil {
			p := toProductResponse(*res.Product)
			out.Product = &p
		}
		c.JSON(okStatus, out)
		return
	}
	_ = c.Error(res.Error)
	var verr *admin.ValidationError
	switch {
	case errors.As(res.Error, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "field": verr.Field, "message": verr.Message})
	case errors.Is(res.Error, storage.ErrUnsupportedType), errors.Is(res.Error, storage.ErrTooLarge):
		msg := matchedMessage(res.Error, storage.ErrUnsupportedType, storage.ErrTooLarge)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "field": imageField, "message": msg})
	case errors.Is(res.Error, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	case errors.Is(res.Error, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "field": "sku", "error": "a product with this sku already exists"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": res.Error.Error()})
	}
}

func (h *handlers) createProduct(c *gin.Context) {
	var in admin.CreateInput
	upload, file, err := decodeAdminBody(c, &in)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if file != nil {
		defer file.Close()
	}
	in.ImageFile = upload
	h.writeResult(c, h.deps.Admin.Create(c.Request.Context(), in), http.StatusCreated)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var patch domain.ProductPatch
	upload, file, err := decodeAdminBody(c, &patch)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if file != nil {
		defer file.Close()
	}
	h.writeResult(c, h.deps.Admin.Update(c.Request.Context(), c.Param("id"), admin.UpdateInput{Patch: patch, ImageFile: upload}), http.StatusOK)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	res := h.deps.Admin.Delete(c.Request.Context(), c.Param("id"))
	if res.Success {
		c.Status(http.StatusNoContent)
		return
	}
	h.writeResult(c, res, http.StatusNoContent)
}
