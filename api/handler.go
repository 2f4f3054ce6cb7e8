package api

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"option-lattice/core/book"
	"option-lattice/core/lattice"
	"option-lattice/core/output"
	apperrors "option-lattice/internal/errors"
)

// handlePrice handles POST /price
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body PriceRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.toRequest(s.opts.Defaults)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkSteps("steps", req.Steps); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.opts.Pricer.Evaluate(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, &output.Quote{
		Result:   res,
		Metadata: output.NewMetadata(start, book.Fingerprint(req), s.opts.Version),
	}, http.StatusOK)
}

// handleConverge handles POST /converge
func (s *Server) handleConverge(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body ConvergeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.toRequest(s.opts.Defaults)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from := body.FromSteps
	if from == 0 {
		from = req.Steps
	}
	if last := float64(from) * math.Pow(2, float64(body.Doublings)); last > float64(s.opts.MaxSteps) {
		s.writeError(w, r, &lattice.ParameterError{
			Field:  "doublings",
			Value:  body.Doublings,
			Reason: fmt.Sprintf("final step count %.0f exceeds server limit %d", last, s.opts.MaxSteps),
		})
		return
	}

	points, err := s.opts.Pricer.Converge(r.Context(), req, from, body.Doublings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, &output.Convergence{
		Request:  req,
		Points:   points,
		Metadata: output.NewMetadata(start, book.Fingerprint(req), s.opts.Version),
	}, http.StatusOK)
}

// handleBook handles POST /book. The body is a YAML or JSON book; send
// Content-Type application/hcl (or ?format=hcl) for an HCL book.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.TypeInvalidBook, "cannot read book", err))
		return
	}

	var b *book.Book
	if isHCL(r) {
		b, err = book.ParseHCL(src, "request.hcl", s.opts.Defaults)
	} else {
		b, err = book.ParseYAML(src, "request", s.opts.Defaults)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	for _, p := range b.Positions {
		if err := s.checkSteps("steps", p.Request.Steps); err != nil {
			s.writeError(w, r, apperrors.Classify(err).WithContext("position", p.Name))
			return
		}
	}

	val, err := s.opts.Valuer.Value(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, val, http.StatusOK)
}

// checkSteps rejects lattices larger than the server allows
func (s *Server) checkSteps(field string, steps int) error {
	if steps > s.opts.MaxSteps {
		return &lattice.ParameterError{
			Field:  field,
			Value:  steps,
			Reason: fmt.Sprintf("step count exceeds server limit %d", s.opts.MaxSteps),
		}
	}
	return nil
}

func isHCL(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "hcl") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "hcl")
}
