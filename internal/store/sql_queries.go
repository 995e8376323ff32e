// SPDX-License-Identifier: Apache-2.0

package store

const (
	findUserByID = `
		SELECT id, email, password_hash, verified, created_at
		FROM users
		WHERE id = $1`

	findUserByEmail = `
		SELECT id, email, password_hash, verified, created_at
		FROM users
		WHERE email = $1`

	createUser = `
		INSERT INTO users (id, email, password_hash, verified, created_at)
		VALUES ($1, $2, $3, FALSE, NOW())
		RETURNING created_at`

	markUserVerified = `
		UPDATE users
		SET verified = TRUE
		WHERE id = $1`

	deleteTokensForPurpose = `
		DELETE FROM user_tokens
		WHERE user_id = $1 AND purpose = $2`

	insertToken = `
		INSERT INTO user_tokens (id, user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	findTokenByHash = `
		SELECT id, user_id, purpose, token_hash, expires_at
		FROM user_tokens
		WHERE purpose = $1 AND token_hash = $2`

	deleteTokenByID = `
		DELETE FROM user_tokens
		WHERE id = $1`
)
