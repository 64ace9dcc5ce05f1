// Package shared holds helpers that serve several layers of the cleaner and
// belong to no single domain package. Production code lives in the domain
// packages; today shared carries only test support under testutil.
package shared
