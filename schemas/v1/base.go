package v1

// BaseTemplate is the initial schema for this major version. The template
// expects variables to be passed using the schemas.Config struct. Patches are
// applied on top of this base.
//
// Column names and types follow the go-pg models in the model packages; each
// table notes the model it is generated from. Event tables mirror their
// primary table's full column set plus event metadata and must be patched in
// lockstep with it.
var BaseTemplate = `

{{- if and .SchemaName (ne .SchemaName "public") }}
SET search_path TO {{ .SchemaName }},public;
{{- end }}

-- =====================================================================================================================
-- TABLES
-- =====================================================================================================================

-- ----------------------------------------------------------------
-- Name: api_token
-- Model: auth.Token
-- Growth: One row per issued API credential
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.api_token (
    key character varying(40) NOT NULL,
    name character varying(150) NOT NULL,
    date_created timestamp with time zone NOT NULL,
    has_recap_permission boolean NOT NULL,
    revoked boolean NOT NULL,
    date_revoked timestamp with time zone
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.api_token ADD CONSTRAINT api_token_pkey PRIMARY KEY (key);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.api_token IS 'API credentials. Never included in bulk exports.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.api_token.key IS 'Secret presented in the Authorization header.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.api_token.has_recap_permission IS 'Grants access to party, attorney, fast document lookup and upload endpoints.';


-- ----------------------------------------------------------------
-- Name: export_run
-- Model: runs.ExportRun
-- Growth: One row per bulk snapshot pass
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.export_run (
    id uuid NOT NULL,
    stamp character varying(32) NOT NULL,
    started_at timestamp with time zone NOT NULL,
    completed_at timestamp with time zone,
    status character varying(10) NOT NULL,
    status_information text NOT NULL,
    manifest_name text NOT NULL,
    tables_exported bigint NOT NULL,
    rows_exported bigint NOT NULL,
    bytes_written bigint NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.export_run ADD CONSTRAINT export_run_pkey PRIMARY KEY (id);
CREATE INDEX export_run_started_at_idx ON {{ .SchemaName | default "public"}}.export_run USING btree (started_at DESC);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.export_run IS 'Bookkeeping for bulk snapshot passes. A run is complete once its manifest is written; the manifest is always written last.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.export_run.stamp IS 'Generation timestamp embedded in every file name produced by the run.';


-- ----------------------------------------------------------------
-- Name: people_attorney
-- Model: party.Attorney
-- Growth: One row per attorney seen on any docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.people_attorney (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    name text NOT NULL,
    contact_raw text NOT NULL,
    phone character varying(20) NOT NULL,
    fax character varying(20) NOT NULL,
    email character varying(254) NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.people_attorney ADD CONSTRAINT people_attorney_pkey PRIMARY KEY (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.people_attorney IS 'Attorneys appearing in cases. Joined to parties and dockets through people_role.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.people_attorney.contact_raw IS 'Unparsed contact block scraped from the docket.';


-- ----------------------------------------------------------------
-- Name: people_party
-- Model: party.Party
-- Growth: One row per party seen on any docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.people_party (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    name text NOT NULL,
    extra_info text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.people_party ADD CONSTRAINT people_party_pkey PRIMARY KEY (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.people_party IS 'Parties appearing in cases. A party row is shared by every docket it appears on; people_role scopes it to a case.';


-- ----------------------------------------------------------------
-- Name: people_role
-- Model: party.Role
-- Growth: One row per representation on a docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.people_role (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    party_id bigint NOT NULL,
    attorney_id bigint NOT NULL,
    docket_id bigint NOT NULL,
    role bigint NOT NULL,
    date_action date
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.people_role ADD CONSTRAINT people_role_pkey PRIMARY KEY (id);
CREATE INDEX people_role_party_id_idx ON {{ .SchemaName | default "public"}}.people_role USING btree (party_id);
CREATE INDEX people_role_attorney_id_idx ON {{ .SchemaName | default "public"}}.people_role USING btree (attorney_id);
CREATE INDEX people_role_docket_id_idx ON {{ .SchemaName | default "public"}}.people_role USING btree (docket_id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.people_role IS 'Joins a party, an attorney and a docket, one row per representation. The docket reference is what scopes a representation to a case.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.people_role.role IS 'Representation type, e.g. lead attorney, pro hac vice, terminated.';


-- ----------------------------------------------------------------
-- Name: recap_fjcintegrateddatabase
-- Model: recap.FJCIntegratedDatabase
-- Growth: One row per case in the FJC Integrated Database releases
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.recap_fjcintegrateddatabase (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    dataset_source bigint NOT NULL,
    circuit_id character varying(15) NOT NULL,
    district_id character varying(15) NOT NULL,
    docket_number character varying(32) NOT NULL,
    origin bigint,
    date_filed date,
    jurisdiction bigint,
    nature_of_suit bigint,
    title text NOT NULL,
    plaintiff text NOT NULL,
    defendant text NOT NULL,
    date_terminated date,
    disposition bigint,
    pro_se bigint
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.recap_fjcintegrateddatabase ADD CONSTRAINT recap_fjcintegrateddatabase_pkey PRIMARY KEY (id);
CREATE INDEX recap_fjcintegrateddatabase_district_id_docket_number_idx ON {{ .SchemaName | default "public"}}.recap_fjcintegrateddatabase USING btree (district_id, docket_number);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.recap_fjcintegrateddatabase IS 'Case metadata merged in from the Federal Judicial Center''s Integrated Database. Upstream releases are best-effort; rows are not guaranteed to join cleanly against dockets.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.recap_fjcintegrateddatabase.dataset_source IS 'Which IDB release the row came from: 1=civil, 2=criminal, 3=appeals, 4=bankruptcy.';


-- ----------------------------------------------------------------
-- Name: search_claimhistory
-- Model: recap.ClaimHistory
-- Growth: One row per document variant attached to a bankruptcy claim
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_claimhistory (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    claim_id bigint NOT NULL,
    date_filed date,
    claim_document_type bigint NOT NULL,
    document_number character varying(32) NOT NULL,
    attachment_number bigint,
    pacer_case_id character varying(100) NOT NULL,
    pacer_doc_id character varying(32) NOT NULL,
    pacer_dmid bigint,
    is_available boolean NOT NULL,
    sha1 character varying(40) NOT NULL,
    file_size bigint,
    filepath_local character varying(1000) NOT NULL,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_claimhistory ADD CONSTRAINT search_claimhistory_pkey PRIMARY KEY (id);
CREATE INDEX search_claimhistory_claim_id_idx ON {{ .SchemaName | default "public"}}.search_claimhistory USING btree (claim_id);
CREATE INDEX search_claimhistory_pacer_doc_id_idx ON {{ .SchemaName | default "public"}}.search_claimhistory USING btree (pacer_doc_id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_claimhistory IS 'Documents attached to bankruptcy claims. Carries the same PACER document identifiers as search_recapdocument.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.claim_id IS 'Claim the document belongs to.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.claim_document_type IS '1 for the document filed with the claim itself, 2 for an attachment.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.pacer_case_id IS 'Identifier of the case in PACER, which for claim documents can differ from the docket''s own case identifier.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.pacer_doc_id IS 'Identifier of the document in PACER, stored with the ambiguous fourth digit normalized to 0.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.pacer_dmid IS 'Document management identifier some bankruptcy courts attach to claim documents.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistory.sha1 IS 'SHA-1 of the document file, empty until the file is available.';


-- ----------------------------------------------------------------
-- Name: search_claimhistoryevent
-- Model: recap.ClaimHistoryEvent
-- Growth: Append-only, one row per write to search_claimhistory
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_claimhistoryevent (
    event_id bigint GENERATED BY DEFAULT AS IDENTITY,
    event_at timestamp with time zone NOT NULL,
    event_type character varying(10) NOT NULL,
    id bigint NOT NULL,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    claim_id bigint NOT NULL,
    date_filed date,
    claim_document_type bigint NOT NULL,
    document_number character varying(32) NOT NULL,
    attachment_number bigint,
    pacer_case_id character varying(100) NOT NULL,
    pacer_doc_id character varying(32) NOT NULL,
    pacer_dmid bigint,
    is_available boolean NOT NULL,
    sha1 character varying(40) NOT NULL,
    file_size bigint,
    filepath_local character varying(1000) NOT NULL,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_claimhistoryevent ADD CONSTRAINT search_claimhistoryevent_pkey PRIMARY KEY (event_id);
CREATE INDEX search_claimhistoryevent_id_idx ON {{ .SchemaName | default "public"}}.search_claimhistoryevent USING btree (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_claimhistoryevent IS 'Append-only mirror of search_claimhistory, one row per create, update or delete. Mirrored columns carry the same definitions as the primary table and are altered in the same migration.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistoryevent.event_id IS 'Identity of the event row itself.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistoryevent.event_at IS 'When the mirrored write happened.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistoryevent.event_type IS 'create, update or delete.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_claimhistoryevent.id IS 'Primary key of the mirrored search_claimhistory row.';


-- ----------------------------------------------------------------
-- Name: search_court
-- Model: court.Court
-- Growth: Static, one row per court
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_court (
    id character varying(15) NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    full_name text NOT NULL,
    short_name text NOT NULL,
    citation_string character varying(100) NOT NULL,
    url text NOT NULL,
    jurisdiction character varying(3) NOT NULL,
    position double precision NOT NULL,
    in_use boolean NOT NULL,
    has_recap_data boolean NOT NULL,
    start_date date,
    end_date date
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_court ADD CONSTRAINT search_court_pkey PRIMARY KEY (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_court IS 'Courts dockets are filed in.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_court.id IS 'Court short code, e.g. ca11 or gand.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_court.jurisdiction IS 'F=federal appellate, FD=federal district, FB=federal bankruptcy, FS=federal special, S=state.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_court.position IS 'Display ordering, lowest first.';


-- ----------------------------------------------------------------
-- Name: search_docket
-- Model: docket.Docket
-- Growth: One row per case docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_docket (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    source bigint NOT NULL,
    court_id character varying(15) NOT NULL,
    case_name text NOT NULL,
    case_name_short text NOT NULL,
    case_name_full text NOT NULL,
    slug character varying(75) NOT NULL,
    docket_number text NOT NULL,
    docket_number_core character varying(20) NOT NULL,
    pacer_case_id character varying(100) NOT NULL,
    date_filed date,
    date_terminated date,
    date_last_filing date,
    assigned_to_str text NOT NULL,
    referred_to_str text NOT NULL,
    cause character varying(2000) NOT NULL,
    nature_of_suit character varying(1000) NOT NULL,
    jury_demand character varying(500) NOT NULL,
    jurisdiction_type character varying(100) NOT NULL,
    blocked boolean NOT NULL,
    date_blocked date
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_docket ADD CONSTRAINT search_docket_pkey PRIMARY KEY (id);
CREATE INDEX search_docket_court_id_idx ON {{ .SchemaName | default "public"}}.search_docket USING btree (court_id);
CREATE INDEX search_docket_docket_number_core_idx ON {{ .SchemaName | default "public"}}.search_docket USING btree (docket_number_core);
CREATE INDEX search_docket_pacer_case_id_idx ON {{ .SchemaName | default "public"}}.search_docket USING btree (pacer_case_id);
CREATE INDEX search_docket_date_filed_idx ON {{ .SchemaName | default "public"}}.search_docket USING btree (date_filed);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_docket IS 'One case before a court. RECAP documents hang off its entries; parties are joined through people_role.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.source IS 'Bitwise flags recording where the docket''s data came from: 1=RECAP, 2=PACER, 16=IDB.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.court_id IS 'Court the docket is filed in.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.slug IS 'URL slug generated from the case name at ingestion.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.docket_number_core IS 'Condensed district-court form of the docket number used for fast lookups, e.g. 1601234 for 2:16-cv-01234. Empty for appellate dockets.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.pacer_case_id IS 'Identifier PACER assigns to the case. Not unique across courts.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.blocked IS 'Whether the docket is withheld from public listings.';


-- ----------------------------------------------------------------
-- Name: search_docketentry
-- Model: docket.DocketEntry
-- Growth: One row per entry on any docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_docketentry (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    docket_id bigint NOT NULL,
    date_filed date,
    entry_number bigint,
    recap_sequence_number character varying(50) NOT NULL,
    pacer_sequence_number bigint,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_docketentry ADD CONSTRAINT search_docketentry_pkey PRIMARY KEY (id);
CREATE INDEX search_docketentry_docket_id_idx ON {{ .SchemaName | default "public"}}.search_docketentry USING btree (docket_id);
CREATE INDEX search_docketentry_ordering_idx ON {{ .SchemaName | default "public"}}.search_docketentry USING btree (docket_id, recap_sequence_number, entry_number);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_docketentry IS 'One row of a case docket. Entry numbers are court-assigned and may be absent; recap_sequence_number orders entries when they are.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentry.entry_number IS 'Court-assigned number of the entry on the docket. Null when the court does not number entries.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentry.recap_sequence_number IS 'Ordering key derived from the PACER receipt during ingestion. Empty when unknown.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentry.pacer_sequence_number IS 'The de_seqno value found in PACER documents.';


-- ----------------------------------------------------------------
-- Name: search_docketentryevent
-- Model: docket.DocketEntryEvent
-- Growth: Append-only, one row per write to search_docketentry
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_docketentryevent (
    event_id bigint GENERATED BY DEFAULT AS IDENTITY,
    event_at timestamp with time zone NOT NULL,
    event_type character varying(10) NOT NULL,
    id bigint NOT NULL,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    docket_id bigint NOT NULL,
    date_filed date,
    entry_number bigint,
    recap_sequence_number character varying(50) NOT NULL,
    pacer_sequence_number bigint,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_docketentryevent ADD CONSTRAINT search_docketentryevent_pkey PRIMARY KEY (event_id);
CREATE INDEX search_docketentryevent_id_idx ON {{ .SchemaName | default "public"}}.search_docketentryevent USING btree (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_docketentryevent IS 'Append-only mirror of search_docketentry, one row per create, update or delete. Mirrored columns carry the same definitions as the primary table and are altered in the same migration.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentryevent.event_id IS 'Identity of the event row itself.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentryevent.event_at IS 'When the mirrored write happened.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentryevent.event_type IS 'create, update or delete.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketentryevent.id IS 'Primary key of the mirrored search_docketentry row.';


-- ----------------------------------------------------------------
-- Name: search_docketevent
-- Model: docket.DocketEvent
-- Growth: Append-only, one row per write to search_docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_docketevent (
    event_id bigint GENERATED BY DEFAULT AS IDENTITY,
    event_at timestamp with time zone NOT NULL,
    event_type character varying(10) NOT NULL,
    id bigint NOT NULL,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    source bigint NOT NULL,
    court_id character varying(15) NOT NULL,
    case_name text NOT NULL,
    case_name_short text NOT NULL,
    case_name_full text NOT NULL,
    slug character varying(75) NOT NULL,
    docket_number text NOT NULL,
    docket_number_core character varying(20) NOT NULL,
    pacer_case_id character varying(100) NOT NULL,
    date_filed date,
    date_terminated date,
    date_last_filing date,
    assigned_to_str text NOT NULL,
    referred_to_str text NOT NULL,
    cause character varying(2000) NOT NULL,
    nature_of_suit character varying(1000) NOT NULL,
    jury_demand character varying(500) NOT NULL,
    jurisdiction_type character varying(100) NOT NULL,
    blocked boolean NOT NULL,
    date_blocked date
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_docketevent ADD CONSTRAINT search_docketevent_pkey PRIMARY KEY (event_id);
CREATE INDEX search_docketevent_id_idx ON {{ .SchemaName | default "public"}}.search_docketevent USING btree (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_docketevent IS 'Append-only mirror of search_docket, one row per create, update or delete. Mirrored columns carry the same definitions as the primary table and are altered in the same migration.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketevent.event_id IS 'Identity of the event row itself.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketevent.event_at IS 'When the mirrored write happened.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketevent.event_type IS 'create, update or delete.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docketevent.id IS 'Primary key of the mirrored search_docket row.';


-- ----------------------------------------------------------------
-- Name: search_recapdocument
-- Model: recap.RECAPDocument
-- Growth: One row per filed document or attachment
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_recapdocument (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    docket_entry_id bigint NOT NULL,
    document_type bigint NOT NULL,
    document_number character varying(32) NOT NULL,
    attachment_number bigint,
    pacer_doc_id character varying(32) NOT NULL,
    is_available boolean NOT NULL,
    sha1 character varying(40) NOT NULL,
    page_count bigint,
    file_size bigint,
    filepath_local character varying(1000) NOT NULL,
    filepath_ia character varying(1000) NOT NULL,
    ocr_status bigint,
    is_free_on_pacer boolean,
    is_sealed boolean,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_recapdocument ADD CONSTRAINT search_recapdocument_pkey PRIMARY KEY (id);
CREATE INDEX search_recapdocument_docket_entry_id_idx ON {{ .SchemaName | default "public"}}.search_recapdocument USING btree (docket_entry_id);
CREATE INDEX search_recapdocument_pacer_doc_id_idx ON {{ .SchemaName | default "public"}}.search_recapdocument USING btree (pacer_doc_id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_recapdocument IS 'Filed items associated with docket entries. A single entry may carry a main document and any number of attachments.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.document_type IS '1 for the main document of an entry, 2 for an attachment.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.document_number IS 'Number of the document on the docket. Stored as text since appellate courts may use their internal identifier here.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.attachment_number IS 'Null for main documents.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.pacer_doc_id IS 'Identifier of the document in PACER, stored with the ambiguous fourth digit normalized to 0.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.is_available IS 'Whether the document file itself is in the archive.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.sha1 IS 'SHA-1 of the document file, empty until the file is available.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.filepath_ia IS 'Internet Archive location of the file, when mirrored there.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocument.ocr_status IS '1=complete, 2=unnecessary, 3=failed, 4=needed. Null when text extraction has not been attempted.';


-- ----------------------------------------------------------------
-- Name: search_recapdocumentevent
-- Model: recap.RECAPDocumentEvent
-- Growth: Append-only, one row per write to search_recapdocument
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_recapdocumentevent (
    event_id bigint GENERATED BY DEFAULT AS IDENTITY,
    event_at timestamp with time zone NOT NULL,
    event_type character varying(10) NOT NULL,
    id bigint NOT NULL,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    docket_entry_id bigint NOT NULL,
    document_type bigint NOT NULL,
    document_number character varying(32) NOT NULL,
    attachment_number bigint,
    pacer_doc_id character varying(32) NOT NULL,
    is_available boolean NOT NULL,
    sha1 character varying(40) NOT NULL,
    page_count bigint,
    file_size bigint,
    filepath_local character varying(1000) NOT NULL,
    filepath_ia character varying(1000) NOT NULL,
    ocr_status bigint,
    is_free_on_pacer boolean,
    is_sealed boolean,
    description text NOT NULL
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_recapdocumentevent ADD CONSTRAINT search_recapdocumentevent_pkey PRIMARY KEY (event_id);
CREATE INDEX search_recapdocumentevent_id_idx ON {{ .SchemaName | default "public"}}.search_recapdocumentevent USING btree (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_recapdocumentevent IS 'Append-only mirror of search_recapdocument, one row per create, update or delete. Mirrored columns carry the same definitions as the primary table and are altered in the same migration.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocumentevent.event_id IS 'Identity of the event row itself.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocumentevent.event_at IS 'When the mirrored write happened.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocumentevent.event_type IS 'create, update or delete.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_recapdocumentevent.id IS 'Primary key of the mirrored search_recapdocument row.';
`
