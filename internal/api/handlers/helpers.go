package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/utils"
)

// respondError writes err as an error envelope. Server side failures are
// logged with the request logger; client errors are not.
func respondError(w http.ResponseWriter, r *http.Request, fallback *logger.Logger, err error, msg string) {
	appErr := errors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), fallback).ErrorWithErr(err, msg)
	}
	utils.WriteError(w, appErr)
}

// respondPage writes a listing envelope. With a projection, each document
// only carries the selected fields.
func respondPage[T any](w http.ResponseWriter, r *http.Request, log *logger.Logger, page resource.Page[T]) {
	items := page.Items
	if items == nil {
		items = []*T{}
	}

	var data interface{} = items
	if page.Plan.Fields != nil {
		docs, err := toMaps(items)
		if err != nil {
			respondError(w, r, log, errors.Internal("Failed to encode documents", err), "Failed to project documents")
			return
		}
		data = utils.Project(docs, page.Plan.Fields)
	}

	utils.WriteList(w, http.StatusOK, data, len(items), utils.NewPage(page.Plan, page.Total))
}

func toMaps(v interface{}) ([]map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
