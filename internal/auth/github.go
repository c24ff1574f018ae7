package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the subset of the GitHub user profile we keep.
type GitHubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

const githubAPIBase = "https://api.github.com"

func GitHubOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
}

func GitHubOAuthConfigured() bool {
	return os.Getenv("GITHUB_CLIENT_ID") != "" && os.Getenv("GITHUB_CLIENT_SECRET") != ""
}

// FetchGitHubUser loads the authenticated user's profile, falling back to the
// emails endpoint when the profile email is private. Users without a
// verified email cannot be provisioned.
func FetchGitHubUser(client *http.Client) (*GitHubUser, error) {
	var user GitHubUser

	if err := getJSON(client, githubAPIBase+"/user", &user); err != nil {
		return nil, err
	}

	if user.Email == "" {
		var emails []githubEmail

		if err := getJSON(client, githubAPIBase+"/user/emails", &emails); err != nil {
			return nil, err
		}

		for _, e := range emails {
			if e.Primary && e.Verified {
				user.Email = e.Email
				break
			}
		}
	}

	if user.Email == "" {
		return nil, fmt.Errorf("GitHub account has no verified email")
	}

	if user.Name == "" {
		user.Name = user.Login
	}

	return &user, nil
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
