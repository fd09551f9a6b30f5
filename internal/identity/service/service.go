package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"provenance/internal/audit"
	"provenance/internal/identity/models"
	"provenance/internal/platform/tracing"
	"provenance/internal/storage"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

var tracer = otel.Tracer("provenance/internal/identity/service")

// Service manages accounts, roles, and eligibility.
type Service struct {
	tx        storage.Tx
	logger    *slog.Logger
	publisher audit.Publisher
	auditor   *audit.Emitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func New(tx storage.Tx, opts ...Option) *Service {
	s := &Service{tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.auditor = audit.NewEmitter(s.publisher, s.logger)
	return s
}

// RegisterAccountCommand carries the self-service signup fields.
type RegisterAccountCommand struct {
	Handle     string
	Email      string
	Phone      string
	NationalID string
	Shopkeeper bool
	ShopName   string
}

// AdminLevel selects whether a new administrator may create further administrators.
type AdminLevel string

const (
	AdminLevelFull    AdminLevel = "full"
	AdminLevelLimited AdminLevel = "limited"
)

type CreateAdminCommand struct {
	Handle     string
	Email      string
	Phone      string
	NationalID string
	Level      AdminLevel
}

// RegisterAccount creates a user or an unapproved shopkeeper.
func (s *Service) RegisterAccount(ctx context.Context, cmd RegisterAccountCommand) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "identity.RegisterAccount")
	defer func() { tracing.End(span, err) }()

	var role models.Role = models.User{}
	if cmd.Shopkeeper {
		role = models.Shopkeeper{Approved: false}
	}
	account, err = models.NewAccount(id.NewAccountID(), cmd.Handle, cmd.Email, cmd.Phone, cmd.NationalID, cmd.ShopName, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		return translateUnique(st.Accounts().Create(ctx, account), "failed to create account")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID,
		"role", account.Role.Kind(),
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionAccountRegistered,
		ActorID:   account.ID,
		AccountID: &account.ID,
	})
	return account, nil
}

// CreateAdmin creates an administrator. Only administrators holding the grant
// privilege may do so.
func (s *Service) CreateAdmin(ctx context.Context, actorID id.AccountID, cmd CreateAdminCommand) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "identity.CreateAdmin")
	defer func() { tracing.End(span, err) }()

	var canGrant bool
	switch cmd.Level {
	case AdminLevelFull:
		canGrant = true
	case AdminLevelLimited, "":
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "admin level must be full or limited")
	}
	account, err = models.NewAccount(id.NewAccountID(), cmd.Handle, cmd.Email, cmd.Phone, cmd.NationalID, "",
		models.Admin{CanGrantAdmin: canGrant}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		actor, err := Actor(ctx, st, actorID)
		if err != nil {
			return err
		}
		if !actor.CanGrantAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only administrators with grant privilege can create administrators")
		}
		return translateUnique(st.Accounts().Create(ctx, account), "failed to create administrator")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "administrator created",
		"account_id", account.ID,
		"actor_id", actorID,
		"can_grant_admin", canGrant,
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionAdminCreated,
		ActorID:   actorID,
		AccountID: &account.ID,
		To:        string(cmd.Level),
	})
	return account, nil
}

// BootstrapAdmin creates a full administrator when no administrator exists
// yet. It reports false without error when one already does.
func (s *Service) BootstrapAdmin(ctx context.Context, cmd CreateAdminCommand) (account *models.Account, created bool, err error) {
	ctx, span := tracer.Start(ctx, "identity.BootstrapAdmin")
	defer func() { tracing.End(span, err) }()

	account, err = models.NewAccount(id.NewAccountID(), cmd.Handle, cmd.Email, cmd.Phone, cmd.NationalID, "",
		models.Admin{CanGrantAdmin: true}, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		admins, err := st.Accounts().List(ctx, storage.AccountFilter{Role: models.RoleAdmin})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list administrators")
		}
		if len(admins) > 0 {
			return nil
		}
		created = true
		return translateUnique(st.Accounts().Create(ctx, account), "failed to create administrator")
	})
	if err != nil || !created {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "bootstrap administrator created", "account_id", account.ID)
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionAdminCreated,
		ActorID:   account.ID,
		AccountID: &account.ID,
		To:        string(AdminLevelFull),
	})
	return account, true, nil
}

func (s *Service) ApproveShopkeeper(ctx context.Context, actorID, target id.AccountID) (*models.Account, error) {
	return s.setShopkeeperApproval(ctx, actorID, target, true)
}

// RejectShopkeeper withdraws approval. The account remains a shopkeeper.
func (s *Service) RejectShopkeeper(ctx context.Context, actorID, target id.AccountID) (*models.Account, error) {
	return s.setShopkeeperApproval(ctx, actorID, target, false)
}

func (s *Service) setShopkeeperApproval(ctx context.Context, actorID, target id.AccountID, approved bool) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "identity.SetShopkeeperApproval", trace.WithAttributes(
		attribute.String("account_id", target.String()),
		attribute.Bool("approved", approved),
	))
	defer func() { tracing.End(span, err) }()

	account, err = s.mutateAccount(ctx, actorID, target, func(a *models.Account) error {
		return a.SetShopkeeperApproval(approved)
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionShopkeeperRejected
	if approved {
		action = audit.ActionShopkeeperApproved
	}
	s.auditor.Emit(ctx, audit.Event{Action: action, ActorID: actorID, AccountID: &target})
	return account, nil
}

// SetSubscription toggles the subscription flag that lifts asset quotas.
func (s *Service) SetSubscription(ctx context.Context, actorID, target id.AccountID, active bool) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "identity.SetSubscription")
	defer func() { tracing.End(span, err) }()

	account, err = s.mutateAccount(ctx, actorID, target, func(a *models.Account) error {
		a.HasSubscription = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	to := "inactive"
	if active {
		to = "active"
	}
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionSubscriptionChanged, ActorID: actorID, AccountID: &target, To: to})
	return account, nil
}

// GrantAdminPrivilege performs the one-time can-grant-admin elevation.
func (s *Service) GrantAdminPrivilege(ctx context.Context, actorID, target id.AccountID) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "identity.GrantAdminPrivilege")
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		actor, err := Actor(ctx, st, actorID)
		if err != nil {
			return err
		}
		if !actor.CanGrantAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only administrators with grant privilege can elevate administrators")
		}
		account, err = findForUpdate(ctx, st, target)
		if err != nil {
			return err
		}
		if err := account.ElevateToGrantAdmin(); err != nil {
			return err
		}
		return translateUnique(st.Accounts().Update(ctx, account), "failed to update account")
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionAdminPrivilegeGrant, ActorID: actorID, AccountID: &target})
	return account, nil
}

// mutateAccount runs an administrator-only change on target under a row lock.
func (s *Service) mutateAccount(ctx context.Context, actorID, target id.AccountID, mutate func(*models.Account) error) (*models.Account, error) {
	var account *models.Account
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := Admin(ctx, st, actorID); err != nil {
			return err
		}
		a, err := findForUpdate(ctx, st, target)
		if err != nil {
			return err
		}
		if err := mutate(a); err != nil {
			return err
		}
		if err := translateUnique(st.Accounts().Update(ctx, a), "failed to update account"); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account updated",
		"account_id", target,
		"actor_id", actorID,
	)
	return account, nil
}

// GetAccount returns an account. Accounts may read themselves; administrators
// may read anyone.
func (s *Service) GetAccount(ctx context.Context, requesterID, target id.AccountID) (*models.Account, error) {
	var account *models.Account
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		if requester.ID != target && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to view this account")
		}
		account, err = find(ctx, st, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Eligibility reports what the account may currently do.
func (s *Service) Eligibility(ctx context.Context, requesterID, target id.AccountID) (*models.Account, *models.Eligibility, error) {
	var (
		account *models.Account
		report  models.Eligibility
	)
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		requester, err := Actor(ctx, st, requesterID)
		if err != nil {
			return err
		}
		if requester.ID != target && !requester.IsAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "not permitted to view this account")
		}
		account, err = find(ctx, st, target)
		if err != nil {
			return err
		}
		owned, err := st.Assets().CountByOwner(ctx, target)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count assets")
		}
		report = account.EligibilityAt(owned, requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, &report, nil
}

// ListAccounts is an administrator listing with optional filters.
func (s *Service) ListAccounts(ctx context.Context, actorID id.AccountID, filter storage.AccountFilter) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		accounts, err = st.Accounts().List(ctx, filter)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
		}
		return nil
	})
	return accounts, err
}

func (s *Service) ListPendingShopkeepers(ctx context.Context, actorID id.AccountID) ([]*models.Account, error) {
	return s.ListAccounts(ctx, actorID, storage.AccountFilter{PendingOnly: true})
}

// FindAccounts searches by handle, phone, national id, or shop name.
func (s *Service) FindAccounts(ctx context.Context, actorID id.AccountID, field storage.AccountField, value string) ([]*models.Account, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "search value is required")
	}
	switch field {
	case storage.AccountFieldHandle, storage.AccountFieldPhone, storage.AccountFieldNationalID, storage.AccountFieldShopName:
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported search field: "+string(field))
	}

	var accounts []*models.Account
	err := s.tx.View(ctx, func(ctx context.Context, st storage.Stores) error {
		if _, err := Admin(ctx, st, actorID); err != nil {
			return err
		}
		var err error
		accounts, err = st.Accounts().Search(ctx, field, value)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to search accounts")
		}
		return nil
	})
	return accounts, err
}

// Actor loads the authenticated account performing an operation.
func Actor(ctx context.Context, st storage.Stores, actorID id.AccountID) (*models.Account, error) {
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	actor, err := st.Accounts().FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown account")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return actor, nil
}

// Admin loads the actor and requires the administrator role.
func Admin(ctx context.Context, st storage.Stores, actorID id.AccountID) (*models.Account, error) {
	actor, err := Actor(ctx, st, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator privileges required")
	}
	return actor, nil
}

// FindByHandle resolves a handle to an account, mapping absence to NotFound.
func FindByHandle(ctx context.Context, st storage.Stores, handle string) (*models.Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "handle is required")
	}
	account, err := st.Accounts().FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account "+handle+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

func find(ctx context.Context, st storage.Stores, accountID id.AccountID) (*models.Account, error) {
	account, err := st.Accounts().FindByID(ctx, accountID)
	return account, wrapAccountErr(err)
}

func findForUpdate(ctx context.Context, st storage.Stores, accountID id.AccountID) (*models.Account, error) {
	account, err := st.Accounts().FindByIDForUpdate(ctx, accountID)
	return account, wrapAccountErr(err)
}

func wrapAccountErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
}

// translateUnique maps a store uniqueness violation to a Conflict naming the field.
func translateUnique(err error, msg string) error {
	if err == nil {
		return nil
	}
	var uv *storage.UniqueViolation
	if errors.As(err, &uv) {
		return dErrors.New(dErrors.CodeConflict, uv.Field+" is already registered")
	}
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.New(dErrors.CodeConflict, "account already exists")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
