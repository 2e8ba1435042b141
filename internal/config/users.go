package config

const defaultPassword = "Password12"

// User is a test account. Forename, Surname and Organisation are filled
// from the identity provider or by the scenario that needs them.
type User struct {
	Email        string
	Password     string
	Forename     string
	Surname      string
	Organisation string
}

// FullName joins forename and surname.
func (u User) FullName() string {
	switch {
	case u.Forename == "":
		return u.Surname
	case u.Surname == "":
		return u.Forename
	}
	return u.Forename + " " + u.Surname
}

// Users has one account per role. It is a value: scenarios take a copy and
// may enrich their copy without affecting others.
type Users struct {
	SwanseaLocalAuthorityOne    User
	SwanseaLocalAuthorityTwo    User
	HillingdonLocalAuthorityOne User
	HillingdonLocalAuthorityTwo User
	WiltshireLocalAuthorityOne  User
	WiltshireLocalAuthorityTwo  User
	LocalAuthorityBarrister     User
	HMCTSAdmin                  User
	HMCTSSuperUser              User
	Cafcass                     User
	Gatekeeper                  User
	Judiciary                   User
	Magistrate                  User
	SystemUpdate                User
	SmokeTest                   User
	HMCTS                       User
	PrivateSolicitorOne         User
	PrivateSolicitorTwo         User
}

func localAuthorityUser(email, password, surname string) User {
	return User{Email: email, Password: password, Forename: email, Surname: surname}
}

func loadUsers() Users {
	la := getEnvOrDefault("LA_USER_PASSWORD", defaultPassword)
	return Users{
		SwanseaLocalAuthorityOne:    localAuthorityUser("kurt@swansea.gov.uk", la, "(local-authority)"),
		SwanseaLocalAuthorityTwo:    localAuthorityUser("damian@swansea.gov.uk", la, "(local-authority)"),
		HillingdonLocalAuthorityOne: localAuthorityUser("sam@hillingdon.gov.uk", la, "(local-authority)"),
		HillingdonLocalAuthorityTwo: localAuthorityUser("siva@hillingdon.gov.uk", la, "(local-authority)"),
		WiltshireLocalAuthorityOne:  localAuthorityUser("raghu@wiltshire.gov.uk", la, "(local-authority)"),
		WiltshireLocalAuthorityTwo:  localAuthorityUser("sam@wiltshire.gov.uk", la, "(local-authority)"),
		LocalAuthorityBarrister: localAuthorityUser("la-barrister@mailnesia.com",
			getEnvOrDefault("LA_BARRISTER_USER_PASSWORD", defaultPassword), "(local-authority-barrister)"),
		HMCTSAdmin:     User{Email: "hmcts-admin@example.com", Password: getEnvOrDefault("CA_USER_PASSWORD", defaultPassword)},
		HMCTSSuperUser: User{Email: "hmcts-superuser@mailnesia.com", Password: getEnvOrDefault("SUPER_USER_PASSWORD", defaultPassword)},
		Cafcass:        User{Email: "cafcass@example.com", Password: getEnvOrDefault("CAFCASS_USER_PASSWORD", defaultPassword)},
		Gatekeeper:     User{Email: "gatekeeper-only@mailnesia.com", Password: getEnvOrDefault("GATEKEEPER_USER_PASSWORD", defaultPassword)},
		Judiciary:      User{Email: "judiciary-only@mailnesia.com", Password: getEnvOrDefault("JUDICIARY_USER_PASSWORD", defaultPassword)},
		Magistrate:     User{Email: "magistrate@mailnesia.com", Password: getEnvOrDefault("MAGISTRATE_USER_PASSWORD", defaultPassword)},
		SystemUpdate: User{
			Email:    getEnvOrDefault("SYSTEM_UPDATE_USER_USERNAME", "fpl-system-update@mailnesia.com"),
			Password: getEnvOrDefault("SYSTEM_UPDATE_USER_PASSWORD", defaultPassword),
		},
		SmokeTest: User{
			Email:    getEnvOrDefault("SMOKE_TEST_LA_USER_USERNAME", "james@swansea.gov.uk"),
			Password: getEnvOrDefault("SMOKE_TEST_LA_USER_PASSWORD", defaultPassword),
		},
		HMCTS: User{
			Email:    getEnvOrDefault("HMCTS_USER_USERNAME", ""),
			Password: getEnvOrDefault("HMCTS_USER_PASSWORD", ""),
		},
		PrivateSolicitorOne: User{Email: "solicitor1@solicitors.uk", Password: la},
		PrivateSolicitorTwo: User{Email: "solicitor2@solicitors.uk", Password: la},
	}
}
