package controller

import (
	"menu-lens-be/internal/dto"
	"menu-lens-be/internal/pkg/serverutils"
	"menu-lens-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGlossaryController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type glossaryController struct {
	glossaryService service.IGlossaryService
}

func NewGlossaryController(glossaryService service.IGlossaryService) IGlossaryController {
	return &glossaryController{
		glossaryService: glossaryService,
	}
}

func (c *glossaryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/glossary/v1")
	h.Get("search", c.Search)
}

func (c *glossaryController) Search(ctx *fiber.Ctx) error {
	req := dto.GlossarySearchRequest{
		Query: ctx.Query("q"),
		Limit: ctx.QueryInt("limit", 0),
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.glossaryService.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search glossary", res))
}
