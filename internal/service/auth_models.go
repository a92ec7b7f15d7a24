package service

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
	TwoFARequired    bool
	LoginID          uint
}

func loginResultFromPair(pair *TokenPair) *LoginResult {
	return &LoginResult{
		AccessToken:      pair.AccessToken,
		ExpiresIn:        pair.ExpiresIn,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresIn: pair.RefreshExpiresIn,
	}
}
