package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
)

// room for the multipart envelope around the file
const multipartSlack = 1 << 20

type iepApi struct {
	svc     *iep.Service
	maxSize int64
}

func registerIEPAPI(g *echo.Group, svc *iep.Service, maxSize int64) {
	api := iepApi{svc: svc, maxSize: maxSize}
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dKB", (maxSize+multipartSlack)/1024))

	ig := g.Group("/iep")
	ig.GET("", api.query, authorize(opIEPList))
	ig.POST("", api.upload, authorize(opIEPUpload), bodyLimit)
}

func (api *iepApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DataResponse{Data: api.svc.List(ctx.Request().Context())})
}

func (api *iepApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			return herr
		}
		return errNoFile
	}
	if fh.Size > api.maxSize {
		return errFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	uploader, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	file, err := api.svc.Upload(ctx.Request().Context(), uploader, iep.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        src,
	}, core.CleanString(ctx.FormValue("comments")))
	if err != nil {
		return errors.Wrap(err, "uploading IEP file")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "上傳成功", Data: file})
}
