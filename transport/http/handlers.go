package http

import (
	"encoding/json"
	"net/http"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/util"
	"github.com/gorilla/mux"
)

func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var e = errors.Extract(err)
	if cde := e.Code; cde >= 400 && cde < 600 {
		status = int(cde)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// remove the internal error
	json.NewEncoder(w).Encode(e.RemoveError())
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(value)
}

func (s *Server) fail(r *http.Request, w http.ResponseWriter, msg string, err error) {
	if errors.Extract(err).Code >= 500 || errors.Extract(err).Code == 0 {
		s.logger.Error(r.Context(), msg, err, map[string]any{
			"request.path": r.URL.Path,
			"request.vars": mux.Vars(r),
		})
	}
	httpError(w, err)
}

func (s *Server) putDocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		var fields = map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, errors.Wrap(err, errors.Validation, "failed to decode document"))
			return
		}
		doc, err := store.NewDocumentFrom(vars["id"], fields)
		if err != nil {
			httpError(w, err)
			return
		}
		if _, err := s.db.Put(r.Context(), vars["collection"], doc); err != nil {
			s.fail(r, w, "failed to put document", err)
			return
		}
		writeJSON(w, doc)
	}
}

func (s *Server) getDocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		doc, err := s.db.Get(r.Context(), vars["collection"], vars["id"])
		if err != nil {
			s.fail(r, w, "failed to get document", err)
			return
		}
		writeJSON(w, doc)
	}
}

func (s *Server) patchDocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		var fields = map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, errors.Wrap(err, errors.Validation, "failed to decode edit"))
			return
		}
		doc, err := s.db.Patch(r.Context(), vars["collection"], vars["id"], fields)
		if err != nil {
			s.fail(r, w, "failed to patch document", err)
			return
		}
		writeJSON(w, doc)
	}
}

func (s *Server) deleteDocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := s.db.Delete(r.Context(), vars["collection"], vars["id"]); err != nil {
			s.fail(r, w, "failed to delete document", err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) queryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := mux.Vars(r)["collection"]
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, errors.Wrap(err, errors.Validation, "failed to decode query"))
			return
		}
		if err := util.ValidateStruct(req); err != nil {
			httpError(w, err)
			return
		}
		constraints, err := req.constraints()
		if err != nil {
			httpError(w, err)
			return
		}
		query := model.Query{
			Filters: constraints,
			OrderBy: req.OrderBy,
			Limit:   req.Limit,
		}
		if req.StartAfter != nil {
			switch {
			case req.StartAfter.ID != "":
				doc, err := s.db.Get(r.Context(), collection, req.StartAfter.ID)
				if err != nil {
					s.fail(r, w, "failed to get start after document", err)
					return
				}
				query.StartAfter = doc
			case len(req.StartAfter.Values) > 0:
				query.StartAfter = req.StartAfter.Values
			}
		}
		page, err := s.db.Load(r.Context(), collection, query)
		if err != nil {
			s.fail(r, w, "failed to query documents", err)
			return
		}
		resp := QueryResponse{Documents: make([]*store.Document, 0, len(page.Documents))}
		for _, snapshot := range page.Documents {
			resp.Documents = append(resp.Documents, snapshot.(*store.Document))
		}
		if cursor, ok := page.Cursor.(*store.Document); ok {
			resp.Cursor = &Cursor{ID: cursor.ID()}
		}
		writeJSON(w, resp)
	}
}
