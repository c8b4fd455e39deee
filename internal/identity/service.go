package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/config"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// Service authenticates users against the local users collection and issues
// HS256 session tokens carrying the actor's identity, role and linked
// patient id.
//
// Credentials are compared as stored, matching the device-local deployment
// this replaces. See DESIGN.md for the inherited limitation.
type Service struct {
	store   interfaces.Store
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	cfg     *config.SessionConfig
}

// New creates the identity service.
func New(store interfaces.Store, log *logger.Logger, metrics *monitoring.MetricsCollector, cfg *config.SessionConfig) *Service {
	return &Service{store: store, logger: log, metrics: metrics, cfg: cfg}
}

var _ interfaces.IdentityService = (*Service)(nil)

// Login validates the credentials and returns the actor plus a session token.
func (s *Service) Login(username, password string) (*types.Actor, string, error) {
	records, err := s.store.Get(workflow.CollectionUsers, map[string]interface{}{"username": username})
	if err != nil {
		return nil, "", err
	}

	var user *types.User
	for _, rec := range records {
		var u types.User
		if err := types.FromRecord(rec, &u); err != nil {
			continue
		}
		if u.Password == password {
			user = &u
			break
		}
	}

	if user == nil || user.Name == "" || !rbac.ValidRole(user.Role) {
		if s.metrics != nil {
			s.metrics.RecordAuthAttempt(false)
		}
		return nil, "", types.NewAuthorizationError(types.ErrCodeUnauthorized, "usuário ou senha inválidos")
	}

	actor := &types.Actor{
		ID:        user.ID,
		Name:      user.Name,
		Role:      user.Role,
		PatientID: user.PatientID,
	}

	token, err := s.issueToken(actor)
	if err != nil {
		return nil, "", types.NewInternalError(types.ErrCodeInternalError, "failed to sign session token", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(true)
	}
	s.logger.Audit(actor.Name, "login", "session", true, map[string]interface{}{"role": actor.Role})
	return actor, token, nil
}

// Verify resolves a session token back to the acting identity. A token
// missing name or role is rejected, mirroring the stored-session validation
// on restore.
func (s *Service) Verify(tokenString string) (*types.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, types.NewAuthorizationError(types.ErrCodeUnauthorized, "sessão inválida ou expirada")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, types.NewAuthorizationError(types.ErrCodeUnauthorized, "sessão inválida")
	}

	actor := &types.Actor{}
	actor.ID, _ = claims["sub"].(string)
	actor.Name, _ = claims["name"].(string)
	actor.Role, _ = claims["role"].(string)
	actor.PatientID, _ = claims["patient_id"].(string)

	if actor.Name == "" || !rbac.ValidRole(actor.Role) {
		return nil, types.NewAuthorizationError(types.ErrCodeUnauthorized, "sessão corrompida")
	}
	return actor, nil
}

// issueToken signs the session claims.
func (s *Service) issueToken(actor *types.Actor) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        actor.ID,
		"name":       actor.Name,
		"role":       actor.Role,
		"patient_id": actor.PatientID,
		"iss":        s.cfg.Issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Duration(s.cfg.TTLHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.SecretKey))
}
