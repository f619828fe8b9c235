// Command momosetup provisions MTN MoMo sandbox credentials: it creates an
// API user and its API key, then prints the environment variables the server
// expects. Run it once per subscription key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hangart/hangart/internal/config"
	"github.com/hangart/hangart/internal/infrastructure/momo"
)

func main() {
	cfg := config.Load()
	var (
		baseURL         = flag.String("base-url", momo.DefaultBaseURL, "MoMo API base URL")
		subscriptionKey = flag.String("subscription-key", cfg.MomoSubscriptionKey, "Ocp-Apim subscription key")
		callbackHost    = flag.String("callback-host", cfg.MomoCallbackHost, "provider callback host")
	)
	flag.Parse()

	if *subscriptionKey == "" {
		fmt.Fprintln(os.Stderr, "momosetup: a subscription key is required (flag -subscription-key or MOMO_SUBSCRIPTION_KEY)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := momo.NewProvisioner(*baseURL, *subscriptionKey, *callbackHost)

	apiUser, err := p.CreateAPIUser(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "momosetup: create api user: %v\n", err)
		os.Exit(1)
	}

	apiKey, err := p.CreateAPIKey(ctx, apiUser)
	if err != nil {
		fmt.Fprintf(os.Stderr, "momosetup: create api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("export MOMO_API_USER=%s\n", apiUser)
	fmt.Printf("export MOMO_API_KEY=%s\n", apiKey)
}
