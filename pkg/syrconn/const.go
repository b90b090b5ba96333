/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package syrconn

// Fixed protocol constants of the SYR Connect cloud API. These values are
// baked into the vendor's mobile client; the server validates requests
// against them, so they are not configurable.
const (
	defaultBaseURL = "https://syrconnect.de/WebServices"

	loginPath        = "/Api/SyrApiService.svc/REST/GetProjects"
	deviceListPath   = "/SyrControlWebServiceTest2.asmx/GetProjectDeviceCollections"
	deviceStatusPath = "/SyrControlWebServiceTest2.asmx/GetDeviceCollectionStatus"
	setStatusPath    = "/SyrControlWebServiceTest2.asmx/SetDeviceCollectionStatus"
	statisticsPath   = "/SyrControlWebServiceTest2.asmx/GetLexPlusStatistics"

	// AES-256-CBC key/IV for the login response payload, hex encoded.
	encryptionKeyHex = "d805a5c409dc354b6ccf03a2c29a5825851cf31979abf526ede72570c52cf954"
	encryptionIVHex  = "408a42beb8a1cefad990098584ed51a5"

	// Checksum secrets: the substitution alphabet and the rolling key.
	checksumAlphabet = "L8KZG4F5DSM6ANBV3CXY7W2ER1T9H0UP"
	checksumKey      = "KHGK5X29LVNZU56T"

	appVersion = "App-3.7.10-de-DE-iOS-iPhone-15.8.3-de.consoft.syr.connect"
	userAgent  = "SYR/400 CFNetwork/1335.0.3.4 Darwin/21.6.0"

	acceptLanguage = "de-DE,de;q=0.9"

	contentTypeXML  = "text/xml"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// StatisticKind selects the LexPlus statistics report type.
type StatisticKind string

const (
	StatisticWater StatisticKind = "water"
	StatisticSalt  StatisticKind = "salt"
)
