package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"user-directory/internal/usecase/user"
	pkgerrors "user-directory/pkg/errors"
)

// sampleUsers is the starter directory loaded by the seed command.
var sampleUsers = []map[string]any{
	{"first_name": "Desi", "last_name": "Christoforou", "email": "dchristoforou0@miibeian.gov.cn", "gender": "Male", "status": "Active"},
	{"first_name": "Skylar", "last_name": "Glenny", "email": "sglenny1@noaa.gov", "gender": "Male", "status": "Active"},
	{"first_name": "Griffin", "last_name": "Gilffillan", "email": "ggilffillan2@yelp.com", "gender": "Male", "status": "Active"},
	{"first_name": "Wilmer", "last_name": "Crotch", "email": "wcrotch3@webs.com", "gender": "Male", "status": "Active"},
	{"first_name": "Faith", "last_name": "Fitzackerley", "email": "ffitzackerley4@opensource.org", "gender": "Female", "status": "Inactive"},
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Created int
	Skipped int
}

// Seed inserts the sample users through the regular create path, so they get
// ids, fingerprints and validation like any other record. Users that already
// exist are skipped, which makes the command safe to repeat.
func Seed(ctx context.Context, uc user.UserUsecase, l *zap.Logger) (SeedResult, error) {
	var res SeedResult

	for _, payload := range sampleUsers {
		resp, err := uc.CreateUser(ctx, user.CreateUserRequest{Payload: clonePayload(payload)})
		if err != nil {
			var conflict *pkgerrors.ConflictError
			if errors.As(err, &conflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed %s: %w", payload["email"], err)
		}

		res.Created++
		l.Info("seeded user", zap.String("id", resp.User.ID), zap.String("email", resp.User.Email))
	}

	return res, nil
}

func clonePayload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
