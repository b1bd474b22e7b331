package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/session"
)

const (
	contextTokenKey   = "sessionToken"
	contextSessionKey = "session"
)

// Claims represents the authorization claims transmitted via a JWT.
// The token ID (jti) names the server-side session; no credential travels with it.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

type jwtConfig struct {
	middleware.JWTConfig
	issuer string
	expiry time.Duration
}

func newJWTConfig(conf *core.Config) jwtConfig {
	return jwtConfig{
		JWTConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		issuer: conf.AppName,
		expiry: conf.Server.JWTExpirationDelta,
	}
}

func (jc jwtConfig) claims(sess session.Session) *Claims {
	now := time.Now()
	exp := now.Add(jc.expiry)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    jc.issuer,
			Subject:   sess.UserID,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: sess.Username,
		Role:     string(sess.Role),
	}
}

// sign generates a signed JWT token string naming sess.
func (jc jwtConfig) sign(sess session.Session) (string, error) {
	method := jwt.GetSigningMethod(jc.SigningMethod)
	token := jwt.NewWithClaims(method, jc.claims(sess))

	ss, err := token.SignedString(jc.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// GenerateToken signs a session token the way the login endpoint does.
func GenerateToken(conf *core.Config, sess session.Session) (string, error) {
	return newJWTConfig(conf).sign(sess)
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, session.ErrNoSession
}

// getContextSession returns the session restored by sessionMiddleware.
func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, session.ErrNoSession
}

type authApi struct {
	jwt      jwtConfig
	svc      session.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, jc jwtConfig, svc session.Service, validate *validator.Validate) {
	api := authApi{jwt: jc, svc: svc, validate: validate}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, authed...)
	ag.GET("/session", api.current, authed...)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	token, err := api.jwt.sign(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		Session:  sess,
		Redirect: session.LandingPath(sess.Role),
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Logout(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) current(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Session: sess, Redirect: session.LandingPath(sess.Role)})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token    string          `json:"token"`
		Session  session.Session `json:"session"`
		Redirect string          `json:"redirect"`
	}

	SessionResponse struct {
		Session  session.Session `json:"session"`
		Redirect string          `json:"redirect"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
