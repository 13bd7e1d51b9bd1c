package controller

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"menu-lens-be/internal/dto"
	"menu-lens-be/internal/pkg/serverutils"
	"menu-lens-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITranslationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Menu(ctx *fiber.Ctx) error
	ItemStatus(ctx *fiber.Ctx) error
	Source(ctx *fiber.Ctx) error
	Share(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type translationController struct {
	translationService service.ITranslationService
}

func NewTranslationController(translationService service.ITranslationService) ITranslationController {
	return &translationController{
		translationService: translationService,
	}
}

func (c *translationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/translation/v1")
	h.Post("session", c.Create)
	h.Get("session", c.List)
	h.Get("session/:id/progress", c.Progress)
	h.Get("session/:id/menu", c.Menu)
	h.Get("session/:id/items/:key/status", c.ItemStatus)
	h.Get("session/:id/source", c.Source)
	h.Post("session/:id/share", c.Share)
	h.Delete("session/:id", c.Delete)
}

func (c *translationController) Create(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Image file is required")
	}

	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return fiber.NewError(fiber.StatusBadRequest, "Uploaded file must be an image")
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	image, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.translationService.Create(ctx.Context(), image, mimeType, filepath.Base(file.Filename))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success create translation session", res))
}

func (c *translationController) List(ctx *fiber.Ctx) error {
	var query dto.ListSessionsRequest
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.translationService.List(ctx.Context(), &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list translation sessions", res))
}

func (c *translationController) Progress(ctx *fiber.Ctx) error {
	res, err := c.translationService.Progress(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session progress", res))
}

func (c *translationController) Menu(ctx *fiber.Ctx) error {
	res, err := c.translationService.MenuView(ctx.Context(), ctx.Params("id"), ctx.Query("fidelity"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show menu", res))
}

func (c *translationController) ItemStatus(ctx *fiber.Ctx) error {
	key, err := decodeParam(ctx.Params("key"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid item key")
	}

	res, err := c.translationService.ItemStatus(ctx.Context(), ctx.Params("id"), ctx.Query("category"), key)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show item status", res))
}

func (c *translationController) Source(ctx *fiber.Ctx) error {
	key := ctx.Query("key")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter 'key' is required")
	}

	res, err := c.translationService.EntrySource(ctx.Context(), ctx.Params("id"), key)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show entry source", res))
}

func (c *translationController) Share(ctx *fiber.Ctx) error {
	var req dto.ShareMenuRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = ctx.Params("id")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.translationService.Share(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Menu export sent", nil))
}

func (c *translationController) Delete(ctx *fiber.Ctx) error {
	if err := c.translationService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete translation session", nil))
}

// decodeParam unescapes a path segment; item keys are raw Japanese text.
func decodeParam(raw string) (string, error) {
	return url.PathUnescape(raw)
}
