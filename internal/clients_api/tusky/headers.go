package tusky

import (
	"fmt"
	"math/rand/v2"
	"net/http"
)

const (
	sdkVersion = "Tusky-SDK/0.31.0"
	clientName = "Tusky-App/dev"
	appReferer = "https://testnet.app.tusky.io/"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
)

var (
	uaBrands   = []string{"Brave", "Chrome", "Firefox", "Safari"}
	uaVersions = []string{"138", "139", "140"}
)

// randomSecChUA mimics the brand list browsers send in Sec-Ch-Ua.
func randomSecChUA() string {
	brand := uaBrands[rand.IntN(len(uaBrands))]
	version := uaVersions[rand.IntN(len(uaVersions))]
	return fmt.Sprintf(`"Not)A;Brand";v="8", "Chromium";v="%s", "%s";v="%s"`, version, brand, version)
}

// setCommonHeaders applies the headers the Tusky web app sends with every call.
func setCommonHeaders(req *http.Request, jwtToken string) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Priority", "u=1, i")
	req.Header.Set("Sdk-Version", sdkVersion)
	req.Header.Set("Sec-Ch-Ua", randomSecChUA())
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-site")
	req.Header.Set("Sec-Gpc", "1")
	req.Header.Set("Referer", appReferer)
	req.Header.Set("Client-Name", clientName)
	req.Header.Set("User-Agent", userAgent)

	if jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+jwtToken)
	}
}
