package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowClientSetupGuide writes instructions for creating a Sentinel Hub OAuth client
func ShowClientSetupGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "SENTINEL HUB OAUTH CLIENT SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "sentinelfetch authenticates with an OAuth client (client credentials grant).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Sign in to the Sentinel Hub dashboard")
	fmt.Fprintln(w, "   - Go to https://apps.sentinel-hub.com/dashboard/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Create an OAuth client")
	fmt.Fprintln(w, "   - Open 'User settings' and find the 'OAuth clients' section")
	fmt.Fprintln(w, "   - Click 'Create' and give the client a name")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Copy the client ID and secret")
	fmt.Fprintln(w, "   - The secret is shown only once, copy it before closing the dialog")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 4: Give them to sentinelfetch, either")
	fmt.Fprintln(w, "   - sentinelfetch auth login            (stored in keychain or encrypted file)")
	fmt.Fprintln(w, "   - export "+envClientID+"=... "+envClientSecret+"=...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The secret grants access to your processing units. Never commit it.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
