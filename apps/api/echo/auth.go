package echoapi

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/tenant"
)

const (
	contextClaimsKey = "claims"

	scopeTenant  = "tenant"
	scopeCentral = "central"
)

// Claims represents the authorization claims transmitted via a JWT.
// Backend is the church API token of the session, sealed with access.Sealer.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Scope        string   `json:"scope"`
	Tenant       string   `json:"tenant,omitempty"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	Role         string   `json:"role,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	Backend      string   `json:"bt"`
}

// tokens issues and verifies gateway sessions.
type tokens struct {
	key          []byte
	issuer       string
	expDelta     time.Duration
	refreshDelta time.Duration
	sealer       *access.Sealer
	revoked      *revocations
	now          func() time.Time
}

// revocations holds the ids of sessions ended before they expired, until they do.
type revocations struct {
	mu  sync.Mutex
	ids map[string]time.Time // jti: expiry
}

func (r *revocations) add(id string, exp, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for jti, e := range r.ids {
		if !now.Before(e) {
			delete(r.ids, jti)
		}
	}
	r.ids[id] = exp
}

func (r *revocations) has(id string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.ids[id]
	return ok && now.Before(exp)
}

func newTokens(conf *core.Config, sealer *access.Sealer) *tokens {
	return &tokens{
		key:          []byte(conf.SecretKey),
		issuer:       conf.AppName,
		expDelta:     conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
		sealer:       sealer,
		revoked:      &revocations{ids: make(map[string]time.Time)},
		now:          time.Now,
	}
}

func (tk *tokens) registered(subject, audience string) jwt.RegisteredClaims {
	now := tk.now()
	rc := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tk.issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(tk.expDelta)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	if audience != "" {
		rc.Audience = jwt.ClaimStrings{audience}
	}
	return rc
}

// userClaims returns the claims of a tenant member session. origIat is kept across refreshes.
func (tk *tokens) userClaims(usr access.User, tenantID, backendToken string, origIat ...int64) (*Claims, error) {
	sealed, err := tk.sealer.Seal(backendToken)
	if err != nil {
		return nil, errors.Wrap(err, "sealing backend token")
	}

	var role string
	if usr.Role != nil {
		role = usr.Role.Name
	}
	claims := &Claims{
		RegisteredClaims: tk.registered(strconv.Itoa(usr.ID), tenantID),
		Scope:            scopeTenant,
		Tenant:           tenantID,
		Name:             usr.FullName(),
		Email:            usr.Email,
		Role:             role,
		Permissions:      usr.Permissions(),
		Backend:          sealed,
	}
	claims.OrigIssuedAt = origIssuedAt(claims, origIat)
	return claims, nil
}

// adminClaims returns the claims of a central admin session.
func (tk *tokens) adminClaims(admin tenant.Admin, backendToken string, origIat ...int64) (*Claims, error) {
	sealed, err := tk.sealer.Seal(backendToken)
	if err != nil {
		return nil, errors.Wrap(err, "sealing backend token")
	}
	claims := &Claims{
		RegisteredClaims: tk.registered(strconv.Itoa(admin.ID), scopeCentral),
		Scope:            scopeCentral,
		Name:             admin.Name,
		Email:            admin.Email,
		Backend:          sealed,
	}
	claims.OrigIssuedAt = origIssuedAt(claims, origIat)
	return claims, nil
}

func origIssuedAt(claims *Claims, origIat []int64) int64 {
	if len(origIat) > 0 && origIat[0] > 0 {
		return origIat[0]
	}
	return claims.IssuedAt.Unix()
}

// generate signs claims into a JWT.
func (tk *tokens) generate(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(tk.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parse verifies a signed JWT and returns its claims.
func (tk *tokens) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		new(Claims),
		func(token *jwt.Token) (interface{}, error) { return tk.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tk.issuer),
		jwt.WithTimeFunc(tk.now),
	)
	if err != nil {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || tk.revoked.has(claims.ID, tk.now()) {
		return nil, errInvalidToken
	}
	return claims, nil
}

// revoke rejects the session of claims for the rest of its lifetime.
func (tk *tokens) revoke(claims Claims) {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	tk.revoked.add(claims.ID, claims.ExpiresAt.Time, tk.now())
}

// backendToken opens the church API token sealed in claims.
func (tk *tokens) backendToken(claims Claims) (string, error) {
	token, err := tk.sealer.Open(claims.Backend)
	if err != nil {
		return "", errInvalidToken
	}
	return token, nil
}

// refreshable checks that the refresh window opened at the first login is still open.
func (tk *tokens) refreshable(claims Claims) error {
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(tk.refreshDelta)
	if tk.now().After(expTime) {
		return errRefreshExpired
	}
	return nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the member of the session, as far as its claims tell.
func getContextUser(ctx echo.Context) (access.User, error) {
	if usr, ok := access.UserFromContext(ctx.Request().Context()); ok {
		return usr, nil
	}
	return access.User{}, errUnauthorized
}

// claimsUser rebuilds the session member from claims.
func claimsUser(claims Claims) access.User {
	id, _ := strconv.Atoi(claims.Subject)
	perms := make([]access.Permission, 0, len(claims.Permissions))
	for _, name := range claims.Permissions {
		perms = append(perms, access.Permission{Name: name})
	}
	return access.User{
		ID:        id,
		FirstName: claims.Name,
		Email:     claims.Email,
		Role:      &access.Role{Name: claims.Role, Permissions: perms},
	}
}

func contextHasAnyPermission(ctx echo.Context, perms []string) bool {
	if len(perms) == 0 {
		return true
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return false
	}
	for _, perm := range perms {
		if usr.HasPermission(perm) {
			return true
		}
	}
	return false
}
