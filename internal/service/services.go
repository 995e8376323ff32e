// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/ItsRqtl/TeachCraft/internal/captcha"
	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
	"github.com/ItsRqtl/TeachCraft/internal/mail"
	"github.com/ItsRqtl/TeachCraft/internal/store"
)

type Services struct {
	AccountService AccountService
}

func NewServices(client *store.Client, mailer mail.Mailer, verifier captcha.Verifier, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AccountService: NewAccountService(client.Users(), mailer, verifier, client.Keyring().SessionSecret(), cfg.App, logger),
	}
}
