package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverclinic/ubscare/internal/store"
	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/config"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

var sessionCfg = &config.SessionConfig{
	SecretKey: "chave-de-teste",
	TTLHours:  1,
	Issuer:    "ubscare-test",
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir(), logger.Discard(), nil, nil)
	require.NoError(t, err)
	return New(fs, logger.Discard(), nil, sessionCfg)
}

func seedUser(t *testing.T, s *Service, user *types.User) {
	t.Helper()
	rec, err := types.ToRecord(user)
	require.NoError(t, err)
	require.NoError(t, s.store.Save(workflow.CollectionUsers, rec))
}

func TestLoginAndVerifyRoundTrip(t *testing.T) {
	s := newTestService(t)
	seedUser(t, s, &types.User{
		ID: "u-1", Name: "Rosa Nunes", Username: "rosa",
		Password: "s3gredo", Role: rbac.RoleNurse,
	})

	actor, token, err := s.Login("rosa", "s3gredo")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "Rosa Nunes", actor.Name)
	assert.Equal(t, rbac.RoleNurse, actor.Role)

	restored, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, restored.ID)
	assert.Equal(t, actor.Name, restored.Name)
	assert.Equal(t, actor.Role, restored.Role)
}

func TestLoginCarriesPatientLink(t *testing.T) {
	s := newTestService(t)
	seedUser(t, s, &types.User{
		ID: "u-2", Name: "Maria da Silva", Username: "maria",
		Password: "x", Role: rbac.RolePatient, PatientID: "p-1",
	})

	actor, token, err := s.Login("maria", "x")
	require.NoError(t, err)
	assert.Equal(t, "p-1", actor.PatientID)

	restored, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "p-1", restored.PatientID)
}

func TestLoginRejections(t *testing.T) {
	s := newTestService(t)
	seedUser(t, s, &types.User{
		ID: "u-1", Name: "Rosa", Username: "rosa", Password: "s3gredo", Role: rbac.RoleNurse,
	})
	seedUser(t, s, &types.User{
		ID: "u-3", Name: "Conta Quebrada", Username: "quebrada", Password: "x", Role: "gerente",
	})

	cases := []struct{ name, username, password string }{
		{"wrong password", "rosa", "errada"},
		{"unknown user", "ninguem", "s3gredo"},
		{"unknown role on the account", "quebrada", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Login(tc.username, tc.password)
			assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization), "got %v", err)
		})
	}
}

func TestVerifyRejections(t *testing.T) {
	s := newTestService(t)

	signed := func(secret string, claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := jwt.MapClaims{
		"sub": "u-1", "name": "Rosa", "role": rbac.RoleNurse,
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.Verify("não-é-um-token")
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		_, err := s.Verify(signed("outra-chave", valid))
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.MapClaims{
			"sub": "u-1", "name": "Rosa", "role": rbac.RoleNurse,
			"exp": time.Now().Add(-time.Hour).Unix(),
		}
		_, err := s.Verify(signed(sessionCfg.SecretKey, expired))
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("session without a name is corrupted", func(t *testing.T) {
		anonymous := jwt.MapClaims{
			"sub": "u-1", "role": rbac.RoleNurse,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		_, err := s.Verify(signed(sessionCfg.SecretKey, anonymous))
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})

	t.Run("session with an unknown role is corrupted", func(t *testing.T) {
		badRole := jwt.MapClaims{
			"sub": "u-1", "name": "Rosa", "role": "gerente",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		_, err := s.Verify(signed(sessionCfg.SecretKey, badRole))
		assert.True(t, types.IsErrorType(err, types.ErrorTypeAuthorization))
	})
}
