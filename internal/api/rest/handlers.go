package rest

import (
	"log/slog"
	"net/http"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/service/approvalflow"
	"github.com/leaseworks/lease-engine/internal/service/contractops"
	"github.com/leaseworks/lease-engine/internal/service/receiptops"
)

// Services bundles the engine services the API fronts.
type Services struct {
	Contracts contractops.Service
	Receipts  receiptops.Service
	Approvals approvalflow.Service
}

// Handler translates HTTP requests into service calls.
type Handler struct {
	services Services
	logger   *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
	}
}

// RegisterRoutes mounts every endpoint on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Contracts
	mux.HandleFunc("POST /api/v1/contracts", h.handleCreateContract)
	mux.HandleFunc("GET /api/v1/contracts/{id}", h.handleGetContract)
	mux.HandleFunc("DELETE /api/v1/contracts/{id}", h.handleDeleteContract)
	mux.HandleFunc("POST /api/v1/contracts/{id}/unit-terms", h.handleAddUnitTerm)
	mux.HandleFunc("POST /api/v1/contracts/{id}/charges", h.handleAddCharge)
	mux.HandleFunc("POST /api/v1/contracts/{id}/line-items/{itemID}/recalculate", h.handleRecalculate)
	mux.HandleFunc("DELETE /api/v1/contracts/{id}/line-items/{itemID}", h.handleRemoveLineItem)

	// Receipts
	mux.HandleFunc("POST /api/v1/receipts", h.handleCreateReceipt)
	mux.HandleFunc("GET /api/v1/receipts/{id}", h.handleGetReceipt)
	mux.HandleFunc("DELETE /api/v1/receipts/{id}", h.handleDeleteReceipt)
	mux.HandleFunc("PUT /api/v1/receipts/{id}/amounts", h.handleUpdateAmounts)
	mux.HandleFunc("POST /api/v1/receipts/{id}/allocations", h.handleAllocate)
	mux.HandleFunc("POST /api/v1/receipts/{id}/payment-status", h.handlePaymentStatus)
	mux.HandleFunc("POST /api/v1/receipts/{id}/post", h.handlePostReceipt)
	mux.HandleFunc("POST /api/v1/postings/{id}/reverse", h.handleReverse)

	// Approval
	mux.HandleFunc("POST /api/v1/documents/{id}/approval/submit", h.handleApprovalSubmit)
	mux.HandleFunc("POST /api/v1/documents/{id}/approval/approve", h.handleApprovalApprove)
	mux.HandleFunc("POST /api/v1/documents/{id}/approval/reject", h.handleApprovalReject)
	mux.HandleFunc("POST /api/v1/documents/{id}/approval/reset", h.handleApprovalReset)
	mux.HandleFunc("POST /api/v1/documents/approval/bulk", h.handleApprovalBulk)
}

func (h *Handler) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.services.Contracts.CreateContract(r.Context(), contractops.CreateContractRequest{
		Number:    req.Number,
		CompanyID: req.CompanyID,
		Currency:  req.Currency,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.services.Contracts.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.services.Contracts.DeleteContract(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddUnitTerm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req unitTermRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.services.Contracts.AddUnitTerm(r.Context(), id, contractops.UnitTermRequest{
		Description:  req.Description,
		Monthly:      req.Monthly,
		Installments: req.Installments,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleAddCharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req chargeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.services.Contracts.AddCharge(r.Context(), id, contractops.ChargeRequest{
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req recalculateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	change, err := req.toFieldChange()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.services.Contracts.RecalculateLineItem(r.Context(), contractID, itemID, change)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleRemoveLineItem(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.services.Contracts.RemoveLineItem(r.Context(), contractID, itemID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	method, err := parsePaymentMethod(req.Method)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.services.Receipts.CreateReceipt(r.Context(), receiptops.CreateReceiptRequest{
		Number:     req.Number,
		ContractID: req.ContractID,
		PayerID:    req.PayerID,
		Method:     method,
		Currency:   req.Currency,
		Amounts: receipt.Amounts{
			Received:        req.Received,
			SecurityDeposit: req.SecurityDeposit,
			Penalty:         req.Penalty,
			Discount:        req.Discount,
		},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.services.Receipts.GetReceipt(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.services.Receipts.DeleteReceipt(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateAmounts(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req amountsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.services.Receipts.UpdateAmounts(r.Context(), id, req.toAmounts())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req allocationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries := make([]receipt.AllocationEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = receipt.AllocationEntry{
			InvoiceRef: e.InvoiceRef,
			Amount:     e.Amount,
			Notes:      e.Notes,
		}
	}

	proposal, err := h.services.Receipts.Allocate(r.Context(), id, receiptops.AllocationRequest{
		Mode:       receipt.AllocationMode(req.Mode),
		InvoiceRef: req.InvoiceRef,
		Entries:    entries,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req paymentStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status, err := parsePaymentStatus(req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.services.Receipts.ChangePaymentStatus(r.Context(), id, status, receipt.StatusChange{
		BankName:      req.BankName,
		DepositDate:   req.DepositDate,
		ClearanceDate: req.ClearanceDate,
		Reason:        req.Reason,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handlePostReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req postReceiptRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	voucher, err := h.services.Receipts.Post(r.Context(), id, receiptops.PostRequest{
		Date:          req.Date,
		DebitAccount:  ledger.AccountRef(req.DebitAccount),
		CreditAccount: ledger.AccountRef(req.CreditAccount),
		Narration:     req.Narration,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, voucher)
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req reverseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	voucher, err := h.services.Receipts.Reverse(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, voucher)
}

func (h *Handler) handleApprovalSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	state, err := h.services.Approvals.Submit(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleApprovalApprove(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalDecision(w, r, "approve")
}

func (h *Handler) handleApprovalReject(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalDecision(w, r, "reject")
}

func (h *Handler) handleApprovalReset(w http.ResponseWriter, r *http.Request) {
	h.handleApprovalDecision(w, r, "reset")
}

func (h *Handler) handleApprovalDecision(w http.ResponseWriter, r *http.Request, action string) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req approvalActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	actor := approval.Actor{ID: req.ActorID, Name: req.ActorName}

	var state approval.State
	switch action {
	case "approve":
		state, err = h.services.Approvals.Approve(r.Context(), id, actor, req.Comment)
	case "reject":
		state, err = h.services.Approvals.Reject(r.Context(), id, actor, req.Reason)
	case "reset":
		state, err = h.services.Approvals.Reset(r.Context(), id, actor)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleApprovalBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkApprovalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	outcome, err := h.services.Approvals.Bulk(r.Context(),
		req.DocumentIDs,
		approval.Actor{ID: req.ActorID, Name: req.ActorName},
		approval.BulkAction(req.Action),
		req.Note,
	)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
