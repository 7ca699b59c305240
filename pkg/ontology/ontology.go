// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ontology holds the closed WOC vocabulary used for every emitted fact:
// entity classes, predicates and modifier individuals.
package ontology

// Namespaces.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	WOC  = "http://rdf.webofcode.org/woc/"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
)

// Entity classes.
const (
	Package            = WOC + "Package"
	Class              = WOC + "Class"
	Interface          = WOC + "Interface"
	Enum               = WOC + "Enum"
	Annotation         = WOC + "Annotation"
	PrimitiveType      = WOC + "PrimitiveType"
	ArrayType          = WOC + "ArrayType"
	TypeVariable       = WOC + "TypeVariable"
	Wildcard           = WOC + "Wildcard"
	ParameterizedType  = WOC + "ParameterizedType"
	TypeArgument       = WOC + "TypeArgument"
	Field              = WOC + "Field"
	Constructor        = WOC + "Constructor"
	Method             = WOC + "Method"
	Parameter          = WOC + "Parameter"
	LocalVariable      = WOC + "LocalVariable"
	LambdaExpression   = WOC + "LambdaExpression"
	AnonymousClass     = WOC + "AnonymousClass"
	Project            = WOC + "Project"
	MavenProject       = WOC + "MavenProject"
	GradleProject      = WOC + "GradleProject"
	JarFile            = WOC + "JarFile"
	ActualArgument     = WOC + "ActualArgument"
	Expression         = WOC + "Expression"
	AssignmentExpr     = WOC + "AssignmentExpression"
	MethodInvocation   = WOC + "MethodInvocationExpression"
	InstanceCreation   = WOC + "ClassInstanceCreationExpression"
	Statement          = WOC + "Statement"
	BlockStatement     = WOC + "BlockStatement"
	IfThenElse         = WOC + "IfThenElseStatement"
	SwitchStatement    = WOC + "SwitchStatement"
	CaseLabeledBlock   = WOC + "CaseLabeledBlock"
	DefaultLabeled     = WOC + "DefaultLabeledBlock"
	WhileStatement     = WOC + "WhileStatement"
	DoStatement        = WOC + "DoStatement"
	ForStatement       = WOC + "ForStatement"
	ForEachStatement   = WOC + "ForEachStatement"
	TryStatement       = WOC + "TryStatement"
	CatchBlock         = WOC + "CatchBlock"
	FinallyBlock       = WOC + "FinallyBlock"
	ReturnStatement    = WOC + "ReturnStatement"
	ThrowStatement     = WOC + "ThrowSatement" // the published vocabulary carries this spelling
	BreakStatement     = WOC + "BreakStatement"
	ContinueStatement  = WOC + "ContinueStatement"
	AssertStatement    = WOC + "AssertStatement"
	SyncStatement      = WOC + "SynchronizedStatement"
	LocalVarDecl       = WOC + "LocalVariableDeclarationStatement"
	ClassDeclStatement = WOC + "ClassDeclarationStatement"
	ExpressionStmt     = WOC + "ExpressionStatement"
	StmtExpressionList = WOC + "StatementExpressionList"
)

// Predicates.
const (
	Type     = RDF + "type"
	Label    = RDFS + "label"
	Comment  = RDFS + "comment"
	HasType  = WOC + "hasType"
	HasName  = WOC + "hasName"
	HasLabel = WOC + "hasLabel"

	HasSimpleName    = WOC + "hasSimpleName"
	HasCanonicalName = WOC + "hasCanonicalName"
	IsDeclaredBy     = WOC + "isDeclaredBy"
	HasPackage       = WOC + "hasPackage"
	IsPackageOf      = WOC + "isPackageOf"
	HasConstructor   = WOC + "hasConstructor"
	HasMethod        = WOC + "hasMethod"
	HasField         = WOC + "hasField"
	HasReturnType    = WOC + "hasReturnType"
	Returns          = WOC + "returns"
	HasReturnDesc    = WOC + "hasReturnDescription"
	Constructs       = WOC + "constructs"
	HasParameter     = WOC + "hasParameter"
	HasPosition      = WOC + "hasPosition"
	HasSourceCode    = WOC + "hasSourceCode"
	Throws           = WOC + "throws"
	HasModifier      = WOC + "hasModifier"
	References       = WOC + "references"
	Extends          = WOC + "extends"
	Implements       = WOC + "implements"
	HasSuperBound    = WOC + "hasSuperBound"
	IsArrayOf        = WOC + "isArrayOf"
	HasDimensions    = WOC + "hasDimensions"
	HasFormalTypeArg = WOC + "hasFormalTypeParameter"
	HasActualTypeArg = WOC + "hasActualTypeArgument"
	HasGenericType   = WOC + "hasGenericType"
	HasAnnotation    = WOC + "hasAnnotation"
	Overrides        = WOC + "overrides"
	IsVarArgs        = WOC + "isVarArgs"
	HasProject       = WOC + "hasProject"
	HasSubProject    = WOC + "hasSubProject"
	HasBuildFile     = WOC + "hasBuildFile"
	HasDependency    = WOC + "hasDependency"

	HasLine             = WOC + "hasLine"
	HasEndLine          = WOC + "hasEndLine"
	HasNextStatement    = WOC + "hasNextStatement"
	HasCondition        = WOC + "hasCondition"
	HasSubStatement     = WOC + "hasSubStatement"
	HasThenBranch       = WOC + "hasThenBranch"
	HasElseBranch       = WOC + "hasElseBranch"
	HasBody             = WOC + "hasBody"
	HasForInit          = WOC + "hasForInit"
	HasForUpdate        = WOC + "hasForUpdate"
	HasSubExpression    = WOC + "hasSubExpression"
	HasReturnedExpr     = WOC + "hasReturnedExpression"
	HasThrownExpr       = WOC + "hasThrownExpression"
	HasAssertExpr       = WOC + "hasAssertExpression"
	HasVariable         = WOC + "hasVariable"
	HasCatchClause      = WOC + "hasCatchClause"
	HasCatchFormalParam = WOC + "hasCatchFormalParameter"
	HasFinallyClause    = WOC + "hasFinallyClause"
	HasResource         = WOC + "hasResource"
	HasTargetedLabel    = WOC + "hasTargetedLabel"
	HasInitializer      = WOC + "hasInitializer"
	HasDeclaration      = WOC + "hasDeclaration"
	HasSwitchLabel      = WOC + "hasSwitchLabel"
	HasLeftHandSide     = WOC + "hasLeftHandSide"
	Invokes             = WOC + "invokes"
	HasArgument         = WOC + "hasArgument"
	HasTarget           = WOC + "hasTarget"
)

// Modifier individuals.
const (
	Public       = WOC + "Public"
	Private      = WOC + "Private"
	Protected    = WOC + "Protected"
	Default      = WOC + "Default"
	Abstract     = WOC + "Abstract"
	Final        = WOC + "Final"
	Static       = WOC + "Static"
	Synchronized = WOC + "Synchronized"
	Volatile     = WOC + "Volatile"
)

// XSD datatypes used for typed literals.
const (
	XSDString  = XSD + "string"
	XSDInteger = XSD + "integer"
	XSDBoolean = XSD + "boolean"
)

// Resource returns the absolute IRI of a relative entity URI.
func Resource(relative string) string {
	return WOC + relative
}
