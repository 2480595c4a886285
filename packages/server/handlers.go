package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vogtb/go-spreadsheet/packages/persist"
	"github.com/vogtb/go-spreadsheet/packages/report"
	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

type listResponse struct {
	Cells   []string `json:"cells"`
	Version uint64   `json:"version"`
}

type cellResponse struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
	Value    any    `json:"value"`
	Error    string `json:"error,omitempty"`
	Version  uint64 `json:"version"`
}

type putRequest struct {
	Contents *string `json:"contents"`
}

type changeResponse struct {
	Affected []string `json:"affected"`
	Version  uint64   `json:"version"`
}

type dependentsResponse struct {
	Name       string   `json:"name"`
	Dependents []string `json:"dependents"`
	Dependees  []string `json:"dependees"`
}

type summaryResponse struct {
	report.Summary
	Version uint64 `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.sheet.Version()})
}

func (s *Server) handleListCells(w http.ResponseWriter, r *http.Request) {
	var resp listResponse
	_ = s.sheet.Read(func(sh *spreadsheet.Spreadsheet, version uint64) error {
		resp = listResponse{Cells: sh.GetNonemptyCellNames(), Version: version}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	var resp cellResponse
	err := s.sheet.Read(func(sh *spreadsheet.Spreadsheet, version uint64) error {
		name, err := sh.CanonicalName(chi.URLParam(r, "name"))
		if err != nil {
			return err
		}
		contents, err := sh.GetCellContents(name)
		if err != nil {
			return err
		}
		value, err := sh.GetCellValue(name)
		if err != nil {
			return err
		}

		resp = cellResponse{
			Name:     name,
			Contents: spreadsheet.FormatPrimitive(contents),
			Value:    value,
			Version:  version,
		}
		if evalErr, ok := value.(*spreadsheet.EvaluationError); ok {
			resp.Value = evalErr.String()
			resp.Error = evalErr.Error()
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutCell(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, spreadsheet.ErrInvalidArgument, "invalid request body: "+err.Error()))
		return
	}
	if req.Contents == nil {
		s.writeError(w, r, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, spreadsheet.ErrInvalidArgument, "contents is required"))
		return
	}
	s.setCell(w, r, *req.Contents)
}

func (s *Server) handleDeleteCell(w http.ResponseWriter, r *http.Request) {
	s.setCell(w, r, "")
}

func (s *Server) setCell(w http.ResponseWriter, r *http.Request, contents string) {
	name := chi.URLParam(r, "name")

	var affected []string
	version, err := s.sheet.Write(func(sh *spreadsheet.Spreadsheet) error {
		var err error
		if affected, err = sh.SetCell(name, contents); err != nil {
			return err
		}
		if s.save != nil {
			if err := s.save(r.Context(), sh); err != nil {
				s.logger.Error("autosave failed", "cell", name, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changeResponse{Affected: affected, Version: version})
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	var resp dependentsResponse
	err := s.sheet.Read(func(sh *spreadsheet.Spreadsheet, _ uint64) error {
		name, err := sh.CanonicalName(chi.URLParam(r, "name"))
		if err != nil {
			return err
		}
		resp.Name = name
		if resp.Dependents, err = sh.GetDirectDependents(name); err != nil {
			return err
		}
		resp.Dependees, err = sh.GetDirectDependees(name)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var resp summaryResponse
	err := s.sheet.Read(func(sh *spreadsheet.Spreadsheet, version uint64) error {
		summary, err := report.Summarize(sh)
		resp = summaryResponse{Summary: summary, Version: version}
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var exportContentTypes = map[string]string{
	"xml":  "application/xml",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	contentType, ok := exportContentTypes[format]
	if !ok {
		s.writeError(w, r, spreadsheet.NewApplicationError(spreadsheet.NotFound, spreadsheet.ErrInvalidArgument, fmt.Sprintf("unknown export format %q", format)))
		return
	}
	codec, err := persist.CodecFor("export." + format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = s.sheet.Read(func(sh *spreadsheet.Spreadsheet, _ uint64) error {
		return persist.Write(&buf, codec, sh)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "spreadsheet."+format))
	_, _ = w.Write(buf.Bytes())
}
