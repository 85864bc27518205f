package httpapi

import (
	"net/http"

	"paybench-engine/internal/resolver"
)

type SalaryHandler struct {
	Resolver *resolver.Resolver
}

func (h SalaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := h.Resolver.Resolve(r.Context(), resolver.Query{
		Title:    q.Get("title"),
		Location: q.Get("location"),
		Country:  q.Get("country"),
		Period:   q.Get("period"),
		IDCode:   q.Get("id"),
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	// Surface the most local record we found; the national one backs it up.
	rec := res.Record
	if res.Regional != nil {
		rec = *res.Regional
	}

	resp := SalaryResponse{
		Average:           rec.Salary,
		High:              res.Band.High,
		Low:               res.Band.Low,
		Year:              rec.Year,
		Period:            rec.Period,
		Title:             res.Record.Title,
		Location:          rec.Location,
		IDCode:            res.Record.IDCode,
		Tier:              string(res.Tier),
		IsGenericFallback: res.GenericFallback,
		Regional:          res.Regional,
		AmbiguousMatches:  res.Ambiguous,
	}
	if resp.Period == "" {
		resp.Period = "year"
	}
	WriteJSON(w, http.StatusOK, resp)
}
