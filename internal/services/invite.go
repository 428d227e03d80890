package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"collabcalendar/internal/domain"
)

const defaultInviteTTL = 7 * 24 * time.Hour

// InviteConfig holds the invite engine settings.
type InviteConfig struct {
	// TTL is how long a freshly issued or rotated invite stays acceptable.
	TTL time.Duration
}

type inviteService struct {
	invites   domain.InviteRepository
	members   domain.MemberRepository
	calendars domain.CalendarRepository
	users     domain.UserRepository
	tx        domain.Transactor
	tokens    domain.InviteTokenCodec
	publisher domain.EventPublisher
	txPublish bool
	config    InviteConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewInviteService returns the invite lifecycle engine.
func NewInviteService(
	invites domain.InviteRepository,
	members domain.MemberRepository,
	calendars domain.CalendarRepository,
	users domain.UserRepository,
	tx domain.Transactor,
	tokens domain.InviteTokenCodec,
	publisher domain.EventPublisher,
	config InviteConfig,
	logger *slog.Logger,
) domain.InviteService {
	if config.TTL <= 0 {
		config.TTL = defaultInviteTTL
	}
	txPublish := false
	if tp, ok := publisher.(domain.TxPublisher); ok {
		txPublish = tp.JoinsTx()
	}
	return &inviteService{
		invites:   invites,
		members:   members,
		calendars: calendars,
		users:     users,
		tx:        tx,
		tokens:    tokens,
		publisher: publisher,
		txPublish: txPublish,
		config:    config,
		logger:    logger,
		tracer:    otel.Tracer("collabcalendar/internal/services"),
		now:       time.Now,
	}
}

// InviteMember invites address to the calendar. It returns the plaintext token when
// a row was created or rotated, and "" when an invite is already outstanding or was
// accepted.
func (s *inviteService) InviteMember(ctx context.Context, calendarID, address, callerID string) (token string, err error) {
	ctx, span := s.tracer.Start(ctx, "invite.InviteMember", trace.WithAttributes(attribute.String("calendar_id", calendarID)))
	defer func() { endSpan(span, err) }()

	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return "", err
	}
	address = domain.NormalizeAddress(address)
	if address == "" {
		return "", fmt.Errorf("%w: destination address is required", domain.ErrInvalidArgument)
	}
	cal, err := s.authorize(ctx, calendarID, caller)
	if err != nil {
		return "", err
	}
	isMember, err := s.members.ExistsByAddressAndCalendar(ctx, address, calendarID)
	if err != nil {
		return "", fmt.Errorf("check membership: %w", err)
	}
	if isMember {
		return "", fmt.Errorf("%w: %s is already a member of this calendar", domain.ErrInvalidArgument, address)
	}

	var created *domain.InviteCreated
	err = s.unitOfWork(ctx, func(ctx context.Context) error {
		token, created = "", nil
		now := s.now()

		inv, err := s.invites.GetByCalendarAndAddress(ctx, calendarID, address)
		if errors.Is(err, domain.ErrNotFound) {
			plaintext, hash, err := s.issueToken()
			if err != nil {
				return err
			}
			inv = &domain.Invite{
				ID:                 uuid.NewString(),
				CalendarID:         calendarID,
				DestinationAddress: address,
				InvitedBy:          caller.ID,
				TokenHash:          hash,
				ExpiresAt:          now.Add(s.config.TTL),
				Status:             domain.InviteStatusPending,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := s.invites.Create(ctx, inv); err != nil {
				return fmt.Errorf("create invite: %w", err)
			}
			token, created = plaintext, s.inviteCreated(inv, cal, caller, plaintext)
			return s.stage(ctx, domain.TopicInviteCreated, *created)
		}
		if err != nil {
			return fmt.Errorf("get invite: %w", err)
		}

		inv.ExpireIfNeeded(now)
		switch inv.Status {
		case domain.InviteStatusPending, domain.InviteStatusAccepted:
			return nil
		}
		plaintext, hash, err := s.issueToken()
		if err != nil {
			return err
		}
		inv.Rotate(hash, caller.ID, now.Add(s.config.TTL), now)
		if err := s.invites.Update(ctx, inv); err != nil {
			return fmt.Errorf("rotate invite: %w", err)
		}
		token, created = plaintext, s.inviteCreated(inv, cal, caller, plaintext)
		return s.stage(ctx, domain.TopicInviteCreated, *created)
	})
	if err != nil {
		return "", err
	}

	if created == nil {
		s.logger.Info("invite already outstanding, nothing to send", "calendar_id", calendarID, "address", address)
		return "", nil
	}
	s.logger.Info("invite issued", "calendar_id", calendarID, "invite_id", created.InviteID, "address", address)
	s.publish(ctx, domain.TopicInviteCreated, *created)
	return token, nil
}

// ResendInvite rotates the token of an outstanding invite and publishes a new
// invite-created event for it.
func (s *inviteService) ResendInvite(ctx context.Context, calendarID, address, callerID string) (token string, err error) {
	ctx, span := s.tracer.Start(ctx, "invite.ResendInvite", trace.WithAttributes(attribute.String("calendar_id", calendarID)))
	defer func() { endSpan(span, err) }()

	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return "", err
	}
	address = domain.NormalizeAddress(address)
	if address == "" {
		return "", fmt.Errorf("%w: destination address is required", domain.ErrInvalidArgument)
	}
	cal, err := s.authorize(ctx, calendarID, caller)
	if err != nil {
		return "", err
	}

	var created *domain.InviteCreated
	var outcome error
	err = s.unitOfWork(ctx, func(ctx context.Context) error {
		token, created, outcome = "", nil, nil
		now := s.now()

		inv, err := s.invites.GetByCalendarAndAddress(ctx, calendarID, address)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no invite for %s", domain.ErrNotFound, address)
		}
		if err != nil {
			return fmt.Errorf("get invite: %w", err)
		}
		if inv.ExpireIfNeeded(now) {
			outcome = fmt.Errorf("%w: invite has expired, invite the address again", domain.ErrFailedPrecondition)
			return s.persist(ctx, inv)
		}
		if inv.Status != domain.InviteStatusPending {
			outcome = fmt.Errorf("%w: invite is %s", domain.ErrFailedPrecondition, inv.Status)
			return nil
		}
		plaintext, hash, err := s.issueToken()
		if err != nil {
			return err
		}
		inv.Rotate(hash, caller.ID, now.Add(s.config.TTL), now)
		if err := s.invites.Update(ctx, inv); err != nil {
			return fmt.Errorf("rotate invite: %w", err)
		}
		token, created = plaintext, s.inviteCreated(inv, cal, caller, plaintext)
		return s.stage(ctx, domain.TopicInviteCreated, *created)
	})
	if err != nil {
		return "", err
	}
	if outcome != nil {
		return "", outcome
	}

	s.logger.Info("invite resent", "calendar_id", calendarID, "invite_id", created.InviteID, "address", address)
	s.publish(ctx, domain.TopicInviteCreated, *created)
	return token, nil
}

// RevokeInvite cancels an outstanding invite on behalf of a calendar manager.
func (s *inviteService) RevokeInvite(ctx context.Context, calendarID, address, callerID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "invite.RevokeInvite", trace.WithAttributes(attribute.String("calendar_id", calendarID)))
	defer func() { endSpan(span, err) }()

	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	address = domain.NormalizeAddress(address)
	if address == "" {
		return fmt.Errorf("%w: destination address is required", domain.ErrInvalidArgument)
	}
	if _, err := s.authorize(ctx, calendarID, caller); err != nil {
		return err
	}

	var outcome error
	err = s.unitOfWork(ctx, func(ctx context.Context) error {
		outcome = nil
		now := s.now()

		inv, err := s.invites.GetByCalendarAndAddress(ctx, calendarID, address)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no invite for %s", domain.ErrNotFound, address)
		}
		if err != nil {
			return fmt.Errorf("get invite: %w", err)
		}
		if inv.ExpireIfNeeded(now) {
			outcome = fmt.Errorf("%w: invite has expired", domain.ErrFailedPrecondition)
			return s.persist(ctx, inv)
		}
		if inv.Status != domain.InviteStatusPending {
			outcome = fmt.Errorf("%w: invite is %s", domain.ErrFailedPrecondition, inv.Status)
			return nil
		}
		inv.Cancel(now)
		return s.persist(ctx, inv)
	})
	if err != nil {
		return err
	}
	if outcome != nil {
		return outcome
	}
	s.logger.Info("invite revoked", "calendar_id", calendarID, "address", address, "revoked_by", caller.ID)
	return nil
}

// AcceptInvite consumes token for the authenticated caller, adding them to the
// calendar. The invite update and the new membership commit together.
func (s *inviteService) AcceptInvite(ctx context.Context, token, callerID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "invite.AcceptInvite")
	defer func() { endSpan(span, err) }()

	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidArgument)
	}
	hash := s.tokens.Hash(token)

	var joined *domain.MemberJoined
	var outcome error
	err = s.unitOfWork(ctx, func(ctx context.Context) error {
		joined, outcome = nil, nil
		now := s.now()

		inv, err := s.lookupPending(ctx, hash, now)
		if err != nil {
			if errors.Is(err, errInviteLapsed) {
				outcome = fmt.Errorf("%w: invite has expired", domain.ErrFailedPrecondition)
				return s.persist(ctx, inv)
			}
			return err
		}
		if !sameAddress(inv.DestinationAddress, caller.Email) {
			return fmt.Errorf("%w: invite was issued to a different address", domain.ErrPermissionDenied)
		}

		address := domain.NormalizeAddress(caller.Email)
		isMember, err := s.members.ExistsByAddressAndCalendar(ctx, address, inv.CalendarID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if !isMember {
			member := &domain.Member{
				ID:         uuid.NewString(),
				CalendarID: inv.CalendarID,
				UserID:     caller.ID,
				Address:    address,
				Role:       domain.RoleViewer,
				InvitedBy:  inv.InvitedBy,
				CreatedAt:  now,
			}
			if err := s.members.Create(ctx, member); err != nil {
				return fmt.Errorf("create member: %w", err)
			}
			cal, err := s.calendars.GetByID(ctx, inv.CalendarID)
			if err != nil {
				return fmt.Errorf("get calendar: %w", err)
			}
			joined = &domain.MemberJoined{
				CalendarID:   inv.CalendarID,
				CalendarName: cal.Name,
				UserID:       caller.ID,
				Address:      address,
				Role:         member.Role.String(),
				JoinedAt:     now,
			}
		}
		inv.Accept(now)
		if err := s.persist(ctx, inv); err != nil {
			return err
		}
		if joined == nil {
			return nil
		}
		return s.stage(ctx, domain.TopicMemberJoined, *joined)
	})
	if err != nil {
		return err
	}
	if outcome != nil {
		return outcome
	}

	if joined == nil {
		s.logger.Info("invite accepted by existing member", "user_id", caller.ID)
		return nil
	}
	s.logger.Info("invite accepted", "calendar_id", joined.CalendarID, "user_id", caller.ID)
	s.publish(ctx, domain.TopicMemberJoined, *joined)
	return nil
}

// DeclineInvite cancels the invite behind token. callerID may be empty for the
// public decline link; when present it must match the invited address.
func (s *inviteService) DeclineInvite(ctx context.Context, token, callerID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "invite.DeclineInvite")
	defer func() { endSpan(span, err) }()

	var caller *domain.User
	if strings.TrimSpace(callerID) != "" {
		caller, err = s.resolveCaller(ctx, callerID)
		if err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidArgument)
	}
	hash := s.tokens.Hash(token)

	var outcome error
	var calendarID string
	err = s.unitOfWork(ctx, func(ctx context.Context) error {
		outcome = nil
		now := s.now()

		inv, err := s.lookupPending(ctx, hash, now)
		if err != nil {
			if errors.Is(err, errInviteLapsed) {
				outcome = fmt.Errorf("%w: invite has expired", domain.ErrFailedPrecondition)
				return s.persist(ctx, inv)
			}
			return err
		}
		if caller != nil && !sameAddress(inv.DestinationAddress, caller.Email) {
			return fmt.Errorf("%w: invite was issued to a different address", domain.ErrPermissionDenied)
		}
		calendarID = inv.CalendarID
		inv.Cancel(now)
		return s.persist(ctx, inv)
	})
	if err != nil {
		return err
	}
	if outcome != nil {
		return outcome
	}
	s.logger.Info("invite declined", "calendar_id", calendarID, "authenticated", caller != nil)
	return nil
}

// ListInvites returns a page of the calendar's invites, newest first. Pending rows
// past their expiry are reported as EXPIRED even before the sweep persists it.
func (s *inviteService) ListInvites(ctx context.Context, calendarID, callerID string, status domain.InviteStatus, params domain.PaginationParams) ([]*domain.Invite, int, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.authorize(ctx, calendarID, caller); err != nil {
		return nil, 0, err
	}
	invites, total, err := s.invites.ListByCalendarID(ctx, calendarID, status, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list invites: %w", err)
	}
	now := s.now()
	for _, inv := range invites {
		inv.ExpireIfNeeded(now)
	}
	return invites, total, nil
}

var errInviteLapsed = errors.New("invite lapsed")

// lookupPending loads the invite for hash and applies lazy expiry. When the invite
// just expired it is returned together with errInviteLapsed so the caller can
// persist the transition.
func (s *inviteService) lookupPending(ctx context.Context, hash string, now time.Time) (*domain.Invite, error) {
	inv, err := s.invites.GetByTokenHash(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invite", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if inv.ExpireIfNeeded(now) {
		return inv, errInviteLapsed
	}
	if inv.Status != domain.InviteStatusPending {
		return nil, fmt.Errorf("%w: invite is %s", domain.ErrFailedPrecondition, inv.Status)
	}
	return inv, nil
}

func (s *inviteService) resolveCaller(ctx context.Context, callerID string) (*domain.User, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrUnauthenticated)
	}
	user, err := s.users.GetByID(ctx, callerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown caller", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("get caller: %w", err)
	}
	return user, nil
}

// authorize loads the calendar and requires the caller to own it or manage it.
func (s *inviteService) authorize(ctx context.Context, calendarID string, caller *domain.User) (*domain.Calendar, error) {
	cal, err := s.calendars.GetByID(ctx, calendarID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: calendar %s", domain.ErrNotFound, calendarID)
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	var membership *domain.Member
	if cal.OwnerID != caller.ID {
		membership, err = s.members.GetByAddressAndCalendar(ctx, domain.NormalizeAddress(caller.Email), calendarID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get membership: %w", err)
		}
	}
	if err := authorizeCalendar(caller.ID, cal, membership, domain.RoleManager); err != nil {
		return nil, err
	}
	return cal, nil
}

// unitOfWork runs fn in a transaction. A unique-key conflict means a concurrent
// writer won the race for the same row, so fn runs once more to observe it.
func (s *inviteService) unitOfWork(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.tx.WithinTx(ctx, fn)
	if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrAlreadyMember) {
		s.logger.Debug("concurrent write detected, retrying unit of work", "err", err)
		err = s.tx.WithinTx(ctx, fn)
	}
	return err
}

func (s *inviteService) persist(ctx context.Context, inv *domain.Invite) error {
	if err := s.invites.Update(ctx, inv); err != nil {
		return fmt.Errorf("update invite: %w", err)
	}
	return nil
}

func (s *inviteService) issueToken() (plaintext, hash string, err error) {
	plaintext, err = s.tokens.Generate()
	if err != nil {
		return "", "", fmt.Errorf("generate invite token: %w", err)
	}
	return plaintext, s.tokens.Hash(plaintext), nil
}

func (s *inviteService) inviteCreated(inv *domain.Invite, cal *domain.Calendar, caller *domain.User, plaintext string) *domain.InviteCreated {
	return &domain.InviteCreated{
		InviteID:           inv.ID,
		CalendarID:         inv.CalendarID,
		CalendarName:       cal.Name,
		InviterAddress:     caller.Email,
		DestinationAddress: inv.DestinationAddress,
		PlaintextToken:     plaintext,
		ExpiresAt:          inv.ExpiresAt,
	}
}

// stage writes the event inside the unit of work when the publisher joins the
// transaction, so a failed write rolls the state change back.
func (s *inviteService) stage(ctx context.Context, topic string, payload any) error {
	if !s.txPublish {
		return nil
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// publish hands the event to a non-transactional bus after commit. Failures are
// logged only.
func (s *inviteService) publish(ctx context.Context, topic string, payload any) {
	if s.txPublish {
		return
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "err", err)
	}
}

func sameAddress(invited, caller string) bool {
	if invited == "" {
		return true
	}
	return domain.NormalizeAddress(invited) == domain.NormalizeAddress(caller)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
