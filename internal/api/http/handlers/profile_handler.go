package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campusdesk/student-portal/internal/api/dto"
	"github.com/campusdesk/student-portal/internal/api/http/views"
	"github.com/campusdesk/student-portal/internal/auth"
	"github.com/campusdesk/student-portal/internal/domain"
	"github.com/campusdesk/student-portal/internal/profileapi"
	"github.com/campusdesk/student-portal/internal/service"
	"github.com/campusdesk/student-portal/internal/session"
	apperrors "github.com/campusdesk/student-portal/pkg/util"
)

const pagePath = "/profile"

// CSRFContextKey is where the csrf middleware leaves the form token.
const CSRFContextKey = "csrf"

// ProfileHandler serves the profile page and its JSON counterpart.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *zap.Logger
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Page handles GET /profile. The profile is fetched on the first visit and
// whenever ?reload=1 is given; redirects after form posts reuse the stored state.
func (h *ProfileHandler) Page(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}

	if err := h.ensureLoaded(ctx, identity, c.QueryBool("reload")); err != nil {
		return err
	}

	view, err := h.profiles.View(ctx, identity)
	if err != nil {
		return err
	}
	if view.Loading {
		return c.Render("loading", fiber.Map{"Title": "Loading Profile..."}, views.Layout)
	}
	csrfToken, _ := c.Locals(CSRFContextKey).(string)
	return c.Render("profile", fiber.Map{"Title": "My Profile", "View": view, "CSRF": csrfToken}, views.Layout)
}

// Edit handles POST /profile/edit.
func (h *ProfileHandler) Edit(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}
	if _, err := h.profiles.BeginEdit(ctx, identity); err != nil {
		return err
	}
	return c.Redirect(pagePath, http.StatusSeeOther)
}

// Cancel handles POST /profile/cancel.
func (h *ProfileHandler) Cancel(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}
	if _, err := h.profiles.Cancel(ctx, identity); err != nil {
		return err
	}
	return c.Redirect(pagePath, http.StatusSeeOther)
}

// Submit handles POST /profile. Failures are reported through the page
// notifications, so every outcome of the profile service redirects back.
func (h *ProfileHandler) Submit(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}

	if _, err := h.profiles.ApplyForm(ctx, identity, postedFields(c)); err != nil {
		return err
	}

	if _, err := h.profiles.Submit(ctx, identity); err != nil {
		if !isSubmitOutcome(err) {
			return err
		}
		h.logger.Debug("profile form submit did not save", zap.String("user_id", identity.ID), zap.Error(err))
	}
	return c.Redirect(pagePath, http.StatusSeeOther)
}

// State handles GET /api/profile.
func (h *ProfileHandler) State(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.ensureLoaded(ctx, identity, false); err != nil {
		return err
	}
	view, err := h.profiles.View(ctx, identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Reload handles POST /api/profile/reload.
func (h *ProfileHandler) Reload(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}
	if _, err := h.profiles.Load(ctx, identity); err != nil {
		return err
	}
	view, err := h.profiles.View(ctx, identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// ChangeField handles PATCH /api/profile/fields.
func (h *ProfileHandler) ChangeField(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}

	var req dto.FieldChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	st, err := h.profiles.SetField(ctx, identity, req.Name, req.Value)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownField) {
			return apperrors.NewValidationError("unknown profile field", map[string]any{"name": req.Name})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FormResponse{Form: st.Buffer, Editing: st.Editing}})
}

// SubmitJSON handles POST /api/profile/submit.
func (h *ProfileHandler) SubmitJSON(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}

	_, err = h.profiles.Submit(ctx, identity)
	switch {
	case errors.Is(err, service.ErrSubmitInProgress):
		return apperrors.NewConflict("a submission is already in progress", nil)
	case errors.Is(err, service.ErrDuplicateStudentID):
		return apperrors.NewConflict(domain.MsgDuplicateStudent, nil)
	case errors.Is(err, service.ErrSubmitFailed):
		return apperrors.NewUpstreamError(err)
	case err != nil:
		return err
	}

	view, err := h.profiles.View(ctx, identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Discard handles DELETE /api/profile/state.
func (h *ProfileHandler) Discard(c *fiber.Ctx) error {
	identity, ctx, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.profiles.Reset(ctx, identity); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ProfileHandler) ensureLoaded(ctx context.Context, identity domain.Identity, force bool) error {
	if !force {
		_, err := h.profiles.Current(ctx, identity)
		if err == nil {
			return nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return err
		}
	}
	_, err := h.profiles.Load(ctx, identity)
	return err
}

func caller(c *fiber.Ctx) (domain.Identity, context.Context, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok || identity.ID == "" {
		return domain.Identity{}, nil, apperrors.NewUnauthorized("authentication required")
	}
	ctx := profileapi.WithToken(c.UserContext(), auth.TokenFromContext(c))
	return identity, ctx, nil
}

// postedFields collects the form fields present in the request body.
func postedFields(c *fiber.Ctx) map[string]string {
	values := make(map[string]string, len(domain.FormFields))
	args := c.Request().PostArgs()
	for _, field := range domain.FormFields {
		if args.Has(field.Name) {
			values[field.Name] = string(args.Peek(field.Name))
		}
	}
	return values
}

func isSubmitOutcome(err error) bool {
	return errors.Is(err, service.ErrSubmitInProgress) ||
		errors.Is(err, service.ErrDuplicateStudentID) ||
		errors.Is(err, service.ErrSubmitFailed)
}
