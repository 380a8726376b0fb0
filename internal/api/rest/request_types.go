package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode unmarshals and validates a request body. Unknown fields are
// rejected so typos fail loudly instead of being silently dropped.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domainerrors.NewValidationError("INVALID_JSON", "request body is not valid JSON").WithCause(err)
	}
	if err := validate.Struct(dst); err != nil {
		details := map[string]interface{}{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
			}
		}
		return domainerrors.NewValidationError("INVALID_REQUEST", "request validation failed").WithDetails(details)
	}
	return nil
}

// pathUUID parses a {name} path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domainerrors.NewValidationError("INVALID_ID",
			fmt.Sprintf("%s is not a valid uuid: %s", name, raw))
	}
	return id, nil
}

type createContractRequest struct {
	Number    string    `json:"number" validate:"required"`
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	Currency  string    `json:"currency" validate:"required,len=3"`
}

type unitTermRequest struct {
	Description  string          `json:"description" validate:"required"`
	Monthly      decimal.Decimal `json:"monthly_amount" validate:"required"`
	Installments int             `json:"installments" validate:"omitempty,min=1"`
}

type chargeRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

// recalculateRequest names the edited field and carries the value for it.
// Exactly one value is read, picked by Field.
type recalculateRequest struct {
	Field     string           `json:"field" validate:"required"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Count     *int             `json:"count,omitempty"`
	TaxRateID *uuid.UUID       `json:"tax_rate_id,omitempty"`
	Date      *time.Time       `json:"date,omitempty"`
}

// toFieldChange maps the request onto a domain field change.
func (req recalculateRequest) toFieldChange() (contract.FieldChange, error) {
	missing := func(what string) error {
		return domainerrors.NewValidationError("MISSING_VALUE",
			fmt.Sprintf("field %s requires %s", req.Field, what))
	}

	switch contract.Field(req.Field) {
	case contract.FieldBaseAmount:
		if req.Amount == nil {
			return contract.FieldChange{}, missing("amount")
		}
		return contract.ChangeBaseAmount(*req.Amount), nil
	case contract.FieldPeriodMultiplier:
		if req.Count == nil {
			return contract.FieldChange{}, missing("count")
		}
		return contract.ChangePeriodMultiplier(*req.Count), nil
	case contract.FieldAnnualAmount:
		if req.Amount == nil {
			return contract.FieldChange{}, missing("amount")
		}
		return contract.ChangeAnnualAmount(*req.Amount), nil
	case contract.FieldChargeAmount:
		if req.Amount == nil {
			return contract.FieldChange{}, missing("amount")
		}
		return contract.ChangeChargeAmount(*req.Amount), nil
	case contract.FieldTaxRate:
		if req.TaxRateID == nil {
			return contract.ChangeTaxRate(values.NoTax), nil
		}
		ref, err := values.NewTaxRateRef(*req.TaxRateID)
		if err != nil {
			return contract.FieldChange{}, domainerrors.NewValidationError("INVALID_TAX_RATE", err.Error())
		}
		return contract.ChangeTaxRate(ref), nil
	case contract.FieldFromDate:
		if req.Date == nil {
			return contract.FieldChange{}, missing("date")
		}
		return contract.ChangeFromDate(*req.Date), nil
	case contract.FieldToDate:
		if req.Date == nil {
			return contract.FieldChange{}, missing("date")
		}
		return contract.ChangeToDate(*req.Date), nil
	default:
		return contract.FieldChange{}, domainerrors.NewValidationError("UNKNOWN_FIELD",
			fmt.Sprintf("field %s is not recalculable", req.Field))
	}
}

type createReceiptRequest struct {
	Number          string          `json:"number" validate:"required"`
	ContractID      uuid.UUID       `json:"contract_id" validate:"required"`
	PayerID         uuid.UUID       `json:"payer_id" validate:"required"`
	Method          string          `json:"method" validate:"required,oneof=cash cheque transfer"`
	Currency        string          `json:"currency" validate:"required,len=3"`
	Received        decimal.Decimal `json:"received_amount" validate:"required"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	Penalty         decimal.Decimal `json:"penalty"`
	Discount        decimal.Decimal `json:"discount"`
}

type amountsRequest struct {
	Received        decimal.Decimal `json:"received_amount" validate:"required"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	Penalty         decimal.Decimal `json:"penalty"`
	Discount        decimal.Decimal `json:"discount"`
}

func (req amountsRequest) toAmounts() receipt.Amounts {
	return receipt.Amounts{
		Received:        req.Received,
		SecurityDeposit: req.SecurityDeposit,
		Penalty:         req.Penalty,
		Discount:        req.Discount,
	}
}

type allocationEntryRequest struct {
	InvoiceRef uuid.UUID       `json:"invoice_ref" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Notes      string          `json:"notes,omitempty"`
}

type allocationRequest struct {
	Mode       string                   `json:"mode" validate:"required,oneof=single multiple"`
	InvoiceRef uuid.UUID                `json:"invoice_ref,omitempty"`
	Entries    []allocationEntryRequest `json:"entries,omitempty" validate:"dive"`
}

type paymentStatusRequest struct {
	Status        string     `json:"status" validate:"required,oneof=pending received deposited cleared bounced cancelled"`
	BankName      string     `json:"bank_name,omitempty"`
	DepositDate   *time.Time `json:"deposit_date,omitempty"`
	ClearanceDate *time.Time `json:"clearance_date,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

type postReceiptRequest struct {
	Date          time.Time `json:"date" validate:"required"`
	DebitAccount  string    `json:"debit_account" validate:"required"`
	CreditAccount string    `json:"credit_account" validate:"required"`
	Narration     string    `json:"narration,omitempty"`
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type approvalActionRequest struct {
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	ActorName string    `json:"actor_name,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type bulkApprovalRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids" validate:"required,min=1"`
	ActorID     uuid.UUID   `json:"actor_id" validate:"required"`
	ActorName   string      `json:"actor_name,omitempty"`
	Action      string      `json:"action" validate:"required,oneof=approve reject"`
	Note        string      `json:"note,omitempty"`
}

func parsePaymentMethod(raw string) (receipt.PaymentMethod, error) {
	switch raw {
	case "cash":
		return receipt.MethodCash, nil
	case "cheque":
		return receipt.MethodCheque, nil
	case "transfer":
		return receipt.MethodTransfer, nil
	default:
		return 0, domainerrors.NewValidationError("UNKNOWN_METHOD",
			fmt.Sprintf("unknown payment method: %s", raw))
	}
}

func parsePaymentStatus(raw string) (receipt.PaymentStatus, error) {
	switch raw {
	case "pending":
		return receipt.PaymentPending, nil
	case "received":
		return receipt.PaymentReceived, nil
	case "deposited":
		return receipt.PaymentDeposited, nil
	case "cleared":
		return receipt.PaymentCleared, nil
	case "bounced":
		return receipt.PaymentBounced, nil
	case "cancelled":
		return receipt.PaymentCancelled, nil
	default:
		return 0, domainerrors.NewValidationError("UNKNOWN_STATUS",
			fmt.Sprintf("unknown payment status: %s", raw))
	}
}
