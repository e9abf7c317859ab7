package auth

import (
	"github.com/vmedis/go-mobile-shell/internal/utils"
	"github.com/vmedis/go-mobile-shell/users"
)

// statusSuccess is the only status value the backend treats as affirmative;
// "failed" and "error" both occur in the wild for rejections.
const statusSuccess = "success"

// statusResponse is the common {status, message} envelope.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r statusResponse) ok() bool {
	return r.Status == statusSuccess
}

// DomainInfo is the tenant metadata returned by domain validation.
type DomainInfo struct {
	AppID        utils.FlexString `json:"app_id"`
	ClinicID     utils.FlexString `json:"kl_id"`
	ClinicName   utils.FlexString `json:"kl_nama"`
	ClinicLogo   utils.FlexString `json:"kl_logo"`
	PharmacyName utils.FlexString `json:"apt_nama"`
	PharmacyLogo utils.FlexString `json:"apt_logo"`
}

type domainValidationResponse struct {
	statusResponse
	Data *DomainInfo `json:"data"`
}

// userPayload is the login endpoint's user shape. Scalar fields use the
// tolerant Flex types: the backend sends ids as numbers or strings depending
// on revision, and a missing field degrades to its zero value rather than
// failing the decode.
type userPayload struct {
	ID         utils.FlexString `json:"id"`
	Username   utils.FlexString `json:"username"`
	Token      utils.FlexString `json:"token"`
	GroupID    utils.FlexInt    `json:"gr_id"`
	AppID      utils.FlexString `json:"app_id"`
	Level      utils.FlexInt    `json:"lvl"`
	Domain     utils.FlexString `json:"domain"`
	FullName   utils.FlexString `json:"nama_lengkap"`
	ClinicID   utils.FlexInt    `json:"kl_id"`
	ClinicName utils.FlexString `json:"kl_nama"`
	ClinicLogo utils.FlexString `json:"kl_logo"`
	Logo       utils.FlexString `json:"logo"`
	AppKind    utils.FlexInt    `json:"app_jenis"`
	Notes      utils.FlexString `json:"keterangan"`
	AppReg     utils.FlexString `json:"app_reg"`
}

func (p *userPayload) toRecord(domain string) users.UserRecord {
	record := users.UserRecord{
		ID:         p.ID.String(),
		Username:   p.Username.String(),
		Token:      p.Token.String(),
		GroupID:    p.GroupID.Int(),
		AppID:      p.AppID.String(),
		Level:      p.Level.Int(),
		Domain:     p.Domain.String(),
		FullName:   p.FullName.String(),
		ClinicID:   p.ClinicID.Int(),
		ClinicName: p.ClinicName.String(),
		ClinicLogo: p.ClinicLogo.String(),
		Logo:       p.Logo.String(),
		AppKind:    p.AppKind.Int(),
		Notes:      p.Notes.String(),
		AppReg:     p.AppReg.String(),
	}
	if record.Domain == "" {
		record.Domain = domain
	}
	return record
}

type loginResponse struct {
	statusResponse
	Data *userPayload `json:"data"`
}

// GraphQL envelope for the MenuGroupUser access query.
type menuGroupUserResponse struct {
	Data *struct {
		MenuGroupUser *struct {
			Items []struct {
				Name utils.FlexString `json:"mn_nama"`
				Code utils.FlexString `json:"mn_kode"`
			} `json:"Items"`
			Items1 []struct {
				URL  utils.FlexString `json:"mn_url"`
				Code utils.FlexString `json:"mn_kode"`
				Name utils.FlexString `json:"mn_nama"`
			} `json:"Items1"`
		} `json:"MenuGroupUser"`
	} `json:"data"`
}

// ResetResult reports the outcome of a password-reset request.
type ResetResult struct {
	Message    string
	Email      string
	FullName   string
	ClinicName string
}

type resetUserResponse struct {
	Data *struct {
		ResetUser *struct {
			Failed bool `json:"gak"`
			User   *struct {
				UserID   utils.FlexInt    `json:"user_id"`
				Email    utils.FlexString `json:"email"`
				FullName utils.FlexString `json:"nama_lengkap"`
			} `json:"user"`
			Clinic *struct {
				Name utils.FlexString `json:"kl_nama"`
			} `json:"aptnama"`
			Errors []struct {
				Path    utils.FlexString `json:"path"`
				Message utils.FlexString `json:"message"`
				Title   utils.FlexString `json:"title"`
			} `json:"errors"`
		} `json:"vmedresetuser"`
	} `json:"data"`
}

// Registration holds the new-account form fields.
type Registration struct {
	Domain   string `json:"domain"`
	FullName string `json:"nama_lengkap"`
	Username string `json:"username"`
	Email    string `json:"email"`
	WhatsApp string `json:"user_wa"`
	Password string `json:"password"`
	Device   string `json:"device"`
}

// RegisterResult reports the outcome of account registration.
type RegisterResult struct {
	Message  string
	UserID   int
	Username string
	Email    string
	FullName string
	AppID    string
}

type registerResponse struct {
	statusResponse
	Data *struct {
		UserID   utils.FlexInt    `json:"user_id"`
		Username utils.FlexString `json:"username"`
		Email    utils.FlexString `json:"email"`
		FullName utils.FlexString `json:"nama_lengkap"`
		AppID    utils.FlexString `json:"app_id"`
	} `json:"data"`
}
