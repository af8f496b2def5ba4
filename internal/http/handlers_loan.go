package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type loanRequest struct {
	BorrowerName string `json:"borrowerName"`
	Principal    string `json:"principal"`
	AmountDue    string `json:"amountDue"`
	Category     string `json:"category,omitempty"`
	Memo         string `json:"memo,omitempty"`
	LoanDate     string `json:"loanDate,omitempty"`
	DueDate      string `json:"dueDate"`
	ReminderDays int    `json:"reminderDays,omitempty"`
}

type paymentRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date,omitempty"`
	Memo   string `json:"memo,omitempty"`
}

func (req loanRequest) toInput() (services.DisburseInput, error) {
	principal, err := core.ParseAmount(req.Principal)
	if err != nil {
		return services.DisburseInput{}, err
	}
	due, err := core.ParseAmount(req.AmountDue)
	if err != nil {
		return services.DisburseInput{}, err
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return services.DisburseInput{}, err
	}
	in := services.DisburseInput{
		BorrowerName: req.BorrowerName,
		Principal:    principal,
		AmountDue:    due,
		Category:     req.Category,
		Memo:         req.Memo,
		DueDate:      dueDate,
		ReminderDays: req.ReminderDays,
	}
	if req.LoanDate != "" {
		loanDate, err := parseDate(req.LoanDate)
		if err != nil {
			return services.DisburseInput{}, err
		}
		in.LoanDate = loanDate
	}
	return in, nil
}

func (req paymentRequest) toInput() (services.PaymentInput, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return services.PaymentInput{}, err
	}
	in := services.PaymentInput{Amount: amount, Memo: req.Memo}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return services.PaymentInput{}, err
		}
		in.Date = date
	}
	return in, nil
}

// loanResponse augments a stored loan with its computed status.
type loanResponse struct {
	core.Loan
	Status core.LoanStatus `json:"status"`
}

func toLoanResponse(l core.Loan, asOf time.Time) loanResponse {
	return loanResponse{Loan: l, Status: l.Status(asOf)}
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	loans := s.svc.Loans.List(r.Context())
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(l, now))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleDisburseLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loan, err := s.svc.Loans.Disburse(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toLoanResponse(*loan, time.Now()))
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := s.svc.Loans.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toLoanResponse(*loan, time.Now()))
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Loans.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loan, err := s.svc.Loans.RecordPayment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toLoanResponse(*loan, time.Now()))
}

func (s *Server) handleLoansDue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Loans.WithDueInfo(r.Context(), time.Now()))
}

func (s *Server) handleLoanStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Loans.Statistics(r.Context()))
}
