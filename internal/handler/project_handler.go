package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/blues/escrow/internal/escrow"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	engine *escrow.Engine
}

func NewProjectHandler(engine *escrow.Engine) *ProjectHandler {
	return &ProjectHandler{
		engine: engine,
	}
}

// CreateProject 创建项目，调用方即创建者
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	creator, ok := callerFrom(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	goal, err := escrow.ParseEther(req.GoalAmount)
	if err != nil {
		EngineError(c, fmt.Errorf("%w: goalAmount %v", escrow.ErrInvalidParameters, err))
		return
	}
	params := escrow.CreateProjectParams{
		Title:        req.Title,
		Description:  req.Description,
		GoalAmount:   goal,
		DurationDays: req.DurationDays,
	}
	if req.MinimumContribution != "" {
		if params.MinimumContribution, err = escrow.ParseEther(req.MinimumContribution); err != nil {
			EngineError(c, fmt.Errorf("%w: minimumContribution %v", escrow.ErrInvalidParameters, err))
			return
		}
	}

	id, err := h.engine.CreateProject(c.Request.Context(), creator, params)
	if err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "项目创建成功", CreateProjectResponse{ID: uint64(id)})
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	views, total, err := h.engine.ListProjects(c.Request.Context(), page, pageSize)
	if err != nil {
		EngineError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", GetProjectsResponse{
		Projects: ToProjectResponseList(views),
		Pagination: Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := projectIdFrom(c)
	if !ok {
		return
	}

	view, err := h.engine.GetProjectDetails(c.Request.Context(), id)
	if err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目详情成功", ToProjectResponse(view))
}
