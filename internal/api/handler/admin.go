package handler

import (
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

func (gr *groupAdmin) ForceReject(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceConsensus, err := do.Invoke[*services.ServiceConsensus](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	submission, err := serviceConsensus.ForceReject(c.Request().Context(), id)
	return restAbort(c, submission, err)
}

func (gr *groupAdmin) Reconcile(c echo.Context) error {
	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := serviceReconcile.Report(c.Request().Context())
	return restAbort(c, report, err)
}
