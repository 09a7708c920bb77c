package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/api/responses"
	"github.com/harborline/storefront-backend/internal/shipping"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/money"
)

type shippingMethodResponse struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Rate    string    `json:"rate"`
	TaxRate string    `json:"tax_rate"`
}

// ListShippingMethods returns the active methods ordered by rate.
func ListShippingMethods(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping repository unavailable"))
			return
		}

		methods, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping methods"))
			return
		}

		out := make([]shippingMethodResponse, 0, len(methods))
		for _, method := range methods {
			out = append(out, shippingMethodResponse{
				ID:      method.ID,
				Code:    method.Code,
				Name:    method.Name,
				Rate:    money.FormatCents(method.RateCents),
				TaxRate: method.TaxRate.String(),
			})
		}
		responses.WriteSuccess(w, map[string]any{"shipping_methods": out})
	}
}
