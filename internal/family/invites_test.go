package family_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// constantReader always yields the same bytes, forcing code collisions.
type constantReader struct{ b byte }

func (r constantReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
	}
	return len(p), nil
}

// sequenceReader yields a different fill byte on each read, sticking with
// the last one once the sequence runs out.
type sequenceReader struct {
	fills []byte
	i     int
}

func (r *sequenceReader) Read(p []byte) (int, error) {
	b := r.fills[len(r.fills)-1]
	if r.i < len(r.fills) {
		b = r.fills[r.i]
		r.i++
	}
	for i := range p {
		p[i] = b
	}
	return len(p), nil
}

func TestIssueInviteCode(t *testing.T) {
	svc, db := setupFamilyService(t)
	ctx := testutil.TestContext(t)

	t.Run("code is sixteen upper-case hex characters", func(t *testing.T) {
		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, "Invites", "USD")
		require.NoError(t, err)

		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)

		assert.Len(t, invite.Code, 16)
		assert.Equal(t, strings.ToUpper(invite.Code), invite.Code)
		for _, c := range invite.Code {
			assert.Contains(t, "0123456789ABCDEF", string(c))
		}
		assert.True(t, invite.IsActive)
	})

	t.Run("expiry is seven days out", func(t *testing.T) {
		issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.SetClock(func() time.Time { return issued })
		defer svc.SetClock(time.Now)

		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, "Clock", "USD")
		require.NoError(t, err)

		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		assert.Equal(t, issued.Add(7*24*time.Hour), invite.ExpiresAt)
	})

	t.Run("plain adult cannot issue", func(t *testing.T) {
		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, "NoPerm", "USD")
		require.NoError(t, err)
		adult := testutil.CreateTestUser(t, db, models.RoleUser)
		testutil.CreateTestMembership(t, db, fam.ID, adult.ID, models.FamilyRoleAdult)

		_, err = svc.IssueInviteCode(ctx, fam.ID, adult.ID)
		assert.ErrorIs(t, err, family.ErrForbidden)
	})

	t.Run("single active code discipline deactivates prior codes", func(t *testing.T) {
		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, "OneCode", "USD")
		require.NoError(t, err)

		first, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		second, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)

		codes, err := svc.ListInviteCodes(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, second.ID, codes[0].ID)

		// The superseded code no longer redeems
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)
		_, err = svc.JoinByInviteCode(ctx, joiner.ID, first.Code)
		assert.ErrorIs(t, err, family.ErrInvalidOrExpiredCode)
	})

	t.Run("codes accumulate when the discipline is off", func(t *testing.T) {
		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, "ManyCodes", "USD")
		require.NoError(t, err)
		require.NoError(t, db.Model(fam).Update("single_active_code", false).Error)

		_, err = svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		_, err = svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)

		codes, err := svc.ListInviteCodes(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		assert.Len(t, codes, 2)
	})
}

func TestGenerateInviteCode_Exhaustion(t *testing.T) {
	svc, db := setupFamilyService(t)
	ctx := testutil.TestContext(t)

	// Seed the only code the constant reader can ever produce.
	head := testutil.CreateTestUser(t, db, models.RoleUser)
	fam, _, err := svc.CreateFamily(ctx, head.ID, "Collide", "USD")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.InviteCode{
		FamilyID:  fam.ID,
		Code:      "ABABABABABABABAB",
		CreatedBy: head.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		IsActive:  true,
	}).Error)

	svc.SetRand(constantReader{b: 0xAB})

	_, err = svc.GenerateInviteCode(ctx)
	assert.ErrorIs(t, err, family.ErrCodeGenerationExhausted)

	_, err = svc.IssueInviteCode(ctx, fam.ID, head.ID)
	assert.ErrorIs(t, err, family.ErrCodeGenerationExhausted)
}

func TestIssueInviteCode_CollisionRetry(t *testing.T) {
	svc, db := setupFamilyService(t)
	ctx := testutil.TestContext(t)

	head := testutil.CreateTestUser(t, db, models.RoleUser)
	fam, _, err := svc.CreateFamily(ctx, head.ID, "Retry", "USD")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.InviteCode{
		FamilyID:  fam.ID,
		Code:      "ABABABABABABABAB",
		CreatedBy: head.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		IsActive:  true,
	}).Error)

	t.Run("first draw collides, second succeeds", func(t *testing.T) {
		svc.SetRand(&sequenceReader{fills: []byte{0xAB, 0xCD}})

		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		assert.Equal(t, "CDCDCDCDCDCDCDCD", invite.Code)
	})

	t.Run("duplicate insert is reported as a duplicated key", func(t *testing.T) {
		err := db.Create(&models.InviteCode{
			FamilyID:  fam.ID,
			Code:      "ABABABABABABABAB",
			CreatedBy: head.ID,
			ExpiresAt: time.Now().Add(time.Hour),
			IsActive:  true,
		}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}

func TestJoinByInviteCode(t *testing.T) {
	svc, db := setupFamilyService(t)
	ctx := testutil.TestContext(t)

	newInvitedFamily := func(t *testing.T, name string) (*models.Family, *models.InviteCode) {
		t.Helper()
		head := testutil.CreateTestUser(t, db, models.RoleUser)
		fam, _, err := svc.CreateFamily(ctx, head.ID, name, "USD")
		require.NoError(t, err)
		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)
		return fam, invite
	}

	t.Run("joiner becomes adult with adult defaults", func(t *testing.T) {
		fam, invite := newInvitedFamily(t, "Join")
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)

		m, err := svc.JoinByInviteCode(ctx, joiner.ID, invite.Code)
		require.NoError(t, err)
		assert.Equal(t, fam.ID, m.FamilyID)
		assert.Equal(t, models.FamilyRoleAdult, m.Role)
		assert.Equal(t, models.AdultPermissions(), m.Permissions())
		assert.True(t, m.IsActive)
		assert.True(t, m.IsPrimary, "sole membership becomes primary")
	})

	t.Run("codes match case-insensitively", func(t *testing.T) {
		_, invite := newInvitedFamily(t, "Case")
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)

		_, err := svc.JoinByInviteCode(ctx, joiner.ID, "  "+strings.ToLower(invite.Code)+" ")
		require.NoError(t, err)
	})

	t.Run("a code redeems exactly once", func(t *testing.T) {
		_, invite := newInvitedFamily(t, "Once")
		first := testutil.CreateTestUser(t, db, models.RoleUser)
		second := testutil.CreateTestUser(t, db, models.RoleUser)

		_, err := svc.JoinByInviteCode(ctx, first.ID, invite.Code)
		require.NoError(t, err)

		_, err = svc.JoinByInviteCode(ctx, second.ID, invite.Code)
		assert.ErrorIs(t, err, family.ErrInvalidOrExpiredCode)
	})

	t.Run("existing member cannot redeem and the code survives", func(t *testing.T) {
		fam, invite := newInvitedFamily(t, "Dupe")
		member := testutil.CreateTestUser(t, db, models.RoleUser)
		testutil.CreateTestMembership(t, db, fam.ID, member.ID, models.FamilyRoleAdult)

		_, err := svc.JoinByInviteCode(ctx, member.ID, invite.Code)
		assert.ErrorIs(t, err, family.ErrAlreadyMember)

		// The rollback leaves the code redeemable for someone else
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)
		_, err = svc.JoinByInviteCode(ctx, joiner.ID, invite.Code)
		require.NoError(t, err)
	})

	t.Run("rejoining revives the old row with fresh adult defaults", func(t *testing.T) {
		fam, _ := newInvitedFamily(t, "Rejoin")
		member := testutil.CreateTestUser(t, db, models.RoleUser)
		old := testutil.CreateTestMembership(t, db, fam.ID, member.ID, models.FamilyRoleChild)
		require.NoError(t, svc.LeaveFamily(ctx, member.ID, fam.ID))

		invite, err := svc.IssueInviteCode(ctx, fam.ID, fam.CreatedBy)
		require.NoError(t, err)

		m, err := svc.JoinByInviteCode(ctx, member.ID, invite.Code)
		require.NoError(t, err)
		assert.Equal(t, old.ID, m.ID, "same row, revived")
		assert.Equal(t, models.FamilyRoleAdult, m.Role)
		assert.Equal(t, models.AdultPermissions(), m.Permissions())

		var count int64
		require.NoError(t, db.Model(&models.Membership{}).
			Where("family_id = ? AND user_id = ?", fam.ID, member.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count, "one row per user and family")
	})

	t.Run("expired code is rejected, boundary included", func(t *testing.T) {
		issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.SetClock(func() time.Time { return issued })
		defer svc.SetClock(time.Now)

		_, invite := newInvitedFamily(t, "Expiry")
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)

		// Exactly at the expiry instant the code is already dead
		svc.SetClock(func() time.Time { return invite.ExpiresAt })
		_, err := svc.JoinByInviteCode(ctx, joiner.ID, invite.Code)
		assert.ErrorIs(t, err, family.ErrInvalidOrExpiredCode)

		// One moment earlier it still works
		svc.SetClock(func() time.Time { return invite.ExpiresAt.Add(-time.Second) })
		_, err = svc.JoinByInviteCode(ctx, joiner.ID, invite.Code)
		require.NoError(t, err)
	})

	t.Run("joining a second family keeps the first primary", func(t *testing.T) {
		_, firstInvite := newInvitedFamily(t, "PrimaryA")
		_, secondInvite := newInvitedFamily(t, "PrimaryB")
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)

		first, err := svc.JoinByInviteCode(ctx, joiner.ID, firstInvite.Code)
		require.NoError(t, err)
		second, err := svc.JoinByInviteCode(ctx, joiner.ID, secondInvite.Code)
		require.NoError(t, err)

		assert.True(t, first.IsPrimary)
		assert.False(t, second.IsPrimary)
	})

	t.Run("blank code is a validation error", func(t *testing.T) {
		joiner := testutil.CreateTestUser(t, db, models.RoleUser)
		_, err := svc.JoinByInviteCode(ctx, joiner.ID, "   ")
		assert.ErrorIs(t, err, family.ErrValidation)
	})
}

func TestRevokeInviteCode(t *testing.T) {
	svc, db := setupFamilyService(t)
	ctx := testutil.TestContext(t)

	head := testutil.CreateTestUser(t, db, models.RoleUser)
	fam, _, err := svc.CreateFamily(ctx, head.ID, "Revoke", "USD")
	require.NoError(t, err)

	t.Run("revoked code no longer redeems", func(t *testing.T) {
		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)

		require.NoError(t, svc.RevokeInviteCode(ctx, fam.ID, head.ID, invite.ID))

		joiner := testutil.CreateTestUser(t, db, models.RoleUser)
		_, err = svc.JoinByInviteCode(ctx, joiner.ID, invite.Code)
		assert.ErrorIs(t, err, family.ErrInvalidOrExpiredCode)
	})

	t.Run("revoking twice reports the code gone", func(t *testing.T) {
		invite, err := svc.IssueInviteCode(ctx, fam.ID, head.ID)
		require.NoError(t, err)

		require.NoError(t, svc.RevokeInviteCode(ctx, fam.ID, head.ID, invite.ID))
		err = svc.RevokeInviteCode(ctx, fam.ID, head.ID, invite.ID)
		assert.ErrorIs(t, err, family.ErrInvalidOrExpiredCode)
	})
}
