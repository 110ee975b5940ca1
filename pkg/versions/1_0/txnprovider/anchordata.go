/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const (
	delimiter    = "."
	allowedParts = 2
)

var integerRegex = regexp.MustCompile(`^[1-9]\d*$`)

// AnchorData holds anchored data.
type AnchorData struct {
	NumberOfOperations int
	CoreIndexFileURI   string
}

// ParseAnchorData will parse anchor string into anchor data model. The number of operations
// must be a positive integer without leading zeros that does not exceed maxOperationCount.
func ParseAnchorData(data string, maxOperationCount uint) (*AnchorData, error) {
	parts := strings.Split(data, delimiter)

	if len(parts) != allowedParts {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringFormatInvalid,
			"parse anchor data[%s] failed: expecting [%d] parts, got [%d] parts", data, allowedParts, len(parts))
	}

	if !integerRegex.MatchString(parts[0]) {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringFormatInvalid,
			"parse anchor data[%s] failed: number of operations must be positive integer", data)
	}

	opsNum, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringFormatInvalid, "parse anchor data[%s] failed: %s", data, err.Error())
	}

	if uint(opsNum) > maxOperationCount {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringFormatInvalid,
			"parse anchor data[%s] failed: number of operations[%d] exceeds maximum[%d]", data, opsNum, maxOperationCount)
	}

	if parts[1] == "" {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringFormatInvalid,
			"parse anchor data[%s] failed: missing core index file URI", data)
	}

	return &AnchorData{
		NumberOfOperations: opsNum,
		CoreIndexFileURI:   parts[1],
	}, nil
}

// GetAnchorString will create anchor string from anchor data.
func (ad *AnchorData) GetAnchorString() string {
	return fmt.Sprintf("%d", ad.NumberOfOperations) + delimiter + ad.CoreIndexFileURI
}
