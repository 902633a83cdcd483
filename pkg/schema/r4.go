package schema

// R4 returns a provider over the built-in FHIR R4 element subset. The table
// covers the resources and paths exercised by analytical queries in
// practice; anything absent is treated as a scalar by the translator, so an
// incomplete table degrades to wider extraction, never to an error.
func R4() *MapProvider {
	return NewMapProvider(r4Elements)
}

var r4Elements = map[string]map[string]ElementInfo{
	"Patient": {
		"identifier":            {Array: true, Type: "Identifier"},
		"identifier.system":     {Type: "uri"},
		"identifier.value":      {Type: "string"},
		"active":                {Type: "boolean"},
		"name":                  {Array: true, Type: "HumanName"},
		"name.use":              {Type: "code"},
		"name.family":           {Type: "string"},
		"name.given":            {Array: true, Type: "string"},
		"name.prefix":           {Array: true, Type: "string"},
		"name.suffix":           {Array: true, Type: "string"},
		"telecom":               {Array: true, Type: "ContactPoint"},
		"telecom.system":        {Type: "code"},
		"telecom.value":         {Type: "string"},
		"telecom.use":           {Type: "code"},
		"gender":                {Type: "code"},
		"birthDate":             {Type: "date"},
		"deceasedBoolean":       {Type: "boolean"},
		"deceasedDateTime":      {Type: "dateTime"},
		"address":               {Array: true, Type: "Address"},
		"address.use":           {Type: "code"},
		"address.line":          {Array: true, Type: "string"},
		"address.city":          {Type: "string"},
		"address.state":         {Type: "string"},
		"address.postalCode":    {Type: "string"},
		"address.country":       {Type: "string"},
		"maritalStatus":         {Type: "CodeableConcept"},
		"maritalStatus.coding":  {Array: true, Type: "Coding"},
		"multipleBirthInteger":  {Type: "integer"},
		"communication":         {Array: true, Type: "BackboneElement"},
		"generalPractitioner":   {Array: true, Type: "Reference"},
		"managingOrganization":  {Type: "Reference"},
		"link":                  {Array: true, Type: "BackboneElement"},
		"extension":             {Array: true, Type: "Extension"},
		"extension.url":         {Type: "uri"},
		"extension.valueString": {Type: "string"},
		"extension.valueCode":   {Type: "code"},
	},
	"Observation": {
		"identifier":                  {Array: true, Type: "Identifier"},
		"status":                      {Type: "code"},
		"category":                    {Array: true, Type: "CodeableConcept"},
		"code":                        {Type: "CodeableConcept"},
		"code.coding":                 {Array: true, Type: "Coding"},
		"code.coding.system":          {Type: "uri"},
		"code.coding.code":            {Type: "code"},
		"code.coding.display":         {Type: "string"},
		"code.text":                   {Type: "string"},
		"subject":                     {Type: "Reference"},
		"subject.reference":           {Type: "string"},
		"effectiveDateTime":           {Type: "dateTime"},
		"issued":                      {Type: "instant"},
		"valueQuantity":               {Type: "Quantity"},
		"valueQuantity.value":         {Type: "decimal"},
		"valueQuantity.unit":          {Type: "string"},
		"valueQuantity.system":        {Type: "uri"},
		"valueQuantity.code":          {Type: "code"},
		"valueString":                 {Type: "string"},
		"valueBoolean":                {Type: "boolean"},
		"component":                   {Array: true, Type: "BackboneElement"},
		"component.code":              {Type: "CodeableConcept"},
		"component.valueQuantity":     {Type: "Quantity"},
		"referenceRange":              {Array: true, Type: "BackboneElement"},
		"performer":                   {Array: true, Type: "Reference"},
		"extension":                   {Array: true, Type: "Extension"},
		"extension.url":               {Type: "uri"},
		"extension.valueQuantity":     {Type: "Quantity"},
	},
	"Condition": {
		"identifier":                {Array: true, Type: "Identifier"},
		"clinicalStatus":            {Type: "CodeableConcept"},
		"verificationStatus":        {Type: "CodeableConcept"},
		"category":                  {Array: true, Type: "CodeableConcept"},
		"severity":                  {Type: "CodeableConcept"},
		"code":                      {Type: "CodeableConcept"},
		"code.coding":               {Array: true, Type: "Coding"},
		"code.coding.system":        {Type: "uri"},
		"code.coding.code":          {Type: "code"},
		"subject":                   {Type: "Reference"},
		"subject.reference":         {Type: "string"},
		"onsetDateTime":             {Type: "dateTime"},
		"abatementDateTime":         {Type: "dateTime"},
		"recordedDate":              {Type: "dateTime"},
		"extension":                 {Array: true, Type: "Extension"},
	},
	"Encounter": {
		"identifier":           {Array: true, Type: "Identifier"},
		"status":               {Type: "code"},
		"class":                {Type: "Coding"},
		"type":                 {Array: true, Type: "CodeableConcept"},
		"subject":              {Type: "Reference"},
		"subject.reference":    {Type: "string"},
		"participant":          {Array: true, Type: "BackboneElement"},
		"period.start":         {Type: "dateTime"},
		"period.end":           {Type: "dateTime"},
		"reasonCode":           {Array: true, Type: "CodeableConcept"},
		"location":             {Array: true, Type: "BackboneElement"},
		"serviceProvider":      {Type: "Reference"},
		"extension":            {Array: true, Type: "Extension"},
	},
	"MedicationRequest": {
		"identifier":                    {Array: true, Type: "Identifier"},
		"status":                        {Type: "code"},
		"intent":                        {Type: "code"},
		"medicationCodeableConcept":     {Type: "CodeableConcept"},
		"subject":                       {Type: "Reference"},
		"subject.reference":             {Type: "string"},
		"authoredOn":                    {Type: "dateTime"},
		"dosageInstruction":             {Array: true, Type: "Dosage"},
		"dosageInstruction.text":        {Type: "string"},
		"dispenseRequest.quantity":      {Type: "Quantity"},
		"extension":                     {Array: true, Type: "Extension"},
	},
}
