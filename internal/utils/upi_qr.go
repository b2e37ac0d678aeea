package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// GenerateUPIQR génère un QR UPI en base64 prêt à mettre dans <img src="...">
func GenerateUPIQR(vpa, payeeName string, amount float64, reference string) (string, error) {
	if vpa == "" {
		return "", fmt.Errorf("adresse UPI non configurée")
	}

	// format upi://pay standard
	params := url.Values{}
	params.Set("pa", vpa)
	params.Set("pn", payeeName)
	params.Set("am", fmt.Sprintf("%.2f", amount))
	params.Set("cu", "INR")
	params.Set("tn", reference)

	uri := "upi://pay?" + params.Encode()

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
