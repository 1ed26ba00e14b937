package slug

import (
	"fmt"
	"net"
	"strings"
)

// DeploymentConfig decides how site URLs are formed. Development posture is
// on when IsDevelopment is set or BaseDomain is empty or localhost.
type DeploymentConfig struct {
	IsDevelopment bool   `koanf:"development"`
	BaseDomain    string `koanf:"base_domain"`
	Port          int    `koanf:"port" validate:"gte=0,lte=65535"`
}

func (c DeploymentConfig) Development() bool {
	d := strings.ToLower(strings.TrimSpace(c.BaseDomain))
	return c.IsDevelopment || d == "" || d == "localhost"
}

// URLs returns the subdomain and subdirectory URL for slug.
func (c DeploymentConfig) URLs(slug string) (subdomain, subdirectory string) {
	if c.Development() {
		host := "localhost"
		if c.Port > 0 {
			host = fmt.Sprintf("localhost:%d", c.Port)
		}
		return fmt.Sprintf("http://%s.%s", slug, host), fmt.Sprintf("http://%s/%s", host, slug)
	}
	domain := strings.ToLower(strings.TrimSpace(c.BaseDomain))
	return fmt.Sprintf("https://%s.%s", slug, domain), fmt.Sprintf("https://%s/%s", domain, slug)
}

// SlugFromHost extracts the site slug from a request Host such as
// "cafe-blue.example.com" or "cafe-blue.localhost:8080". It returns false
// for the bare domain, nested subdomains, reserved names and malformed labels.
func (c DeploymentConfig) SlugFromHost(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	domain := "localhost"
	if !c.Development() {
		domain = strings.ToLower(strings.TrimSpace(c.BaseDomain))
	}
	label, ok := strings.CutSuffix(host, "."+domain)
	if !ok || label == "" || strings.Contains(label, ".") {
		return "", false
	}
	if !Valid(label) || Reserved(label) {
		return "", false
	}
	return label, true
}
